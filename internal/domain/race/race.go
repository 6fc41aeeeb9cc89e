// Package race parses result sheets into a race header plus finisher rows.
//
// A sheet is CSV. The first record is the race header:
//
//	race_name,date,distance[,ref200]
//
// with the date as ddmmyyyy and the distance in meters. Every following
// record is one finisher:
//
//	runner,team,time[,rating]
//
// where time is seconds, mm:ss, or hh:mm:ss and the optional rating seeds
// a runner whose history predates the database.
package race

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/nircadb/internal/domain/model"
	"github.com/okian/nircadb/internal/domain/rating"
)

const dateLayout = "02012006"

// Row is one finisher line from a result sheet.
type Row struct {
	RunnerName string
	TeamName   string
	Seconds    float64
	// OldRating seeds a runner with no stored rating. Nil when the sheet
	// leaves the column empty.
	OldRating *float64
}

// Sheet is a fully parsed result file.
type Sheet struct {
	Race model.Race
	Rows []Row
}

// Parse reads a result sheet. The header must name a supported distance;
// when the sheet omits ref200 the calibrated default for the distance is
// used, and distances without a default reject the sheet.
func Parse(r io.Reader) (Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return Sheet{}, fmt.Errorf("%w: missing header: %w", ErrMalformedSheet, err)
	}
	meta, err := parseHeader(header)
	if err != nil {
		return Sheet{}, err
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Sheet{}, fmt.Errorf("%w: line %d: %w", ErrMalformedSheet, line, err)
		}
		row, err := parseRow(record)
		if err != nil {
			return Sheet{}, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return Sheet{}, fmt.Errorf("%w: no finisher rows", ErrMalformedSheet)
	}
	return Sheet{Race: meta, Rows: rows}, nil
}

func parseHeader(record []string) (model.Race, error) {
	if len(record) < 3 || len(record) > 4 {
		return model.Race{}, fmt.Errorf("%w: header wants race_name,date,distance[,ref200]", ErrMalformedSheet)
	}
	name := strings.TrimSpace(record[0])
	if name == "" {
		return model.Race{}, fmt.Errorf("%w: empty race name", ErrMalformedSheet)
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(record[1]))
	if err != nil {
		return model.Race{}, fmt.Errorf("%w: date %q wants ddmmyyyy", ErrMalformedSheet, record[1])
	}

	distance, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return model.Race{}, fmt.Errorf("%w: distance %q", ErrMalformedSheet, record[2])
	}
	scale, err := rating.Scale(distance)
	if err != nil {
		return model.Race{}, err
	}

	ref200, haveRef := rating.DefaultReference(distance)
	if len(record) == 4 && strings.TrimSpace(record[3]) != "" {
		ref200, err = strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil || ref200 <= 0 {
			return model.Race{}, fmt.Errorf("%w: ref200 %q", ErrMalformedSheet, record[3])
		}
	} else if !haveRef {
		return model.Race{}, fmt.Errorf("%w: %dm has no default reference, sheet must carry ref200", ErrMalformedSheet, distance)
	}

	return model.Race{
		Name:     name,
		Date:     date,
		Distance: distance,
		Scale:    scale,
		Ref200:   ref200,
		Pending:  true,
	}, nil
}

func parseRow(record []string) (Row, error) {
	if len(record) < 3 || len(record) > 4 {
		return Row{}, fmt.Errorf("%w: row wants runner,team,time[,rating]", ErrMalformedSheet)
	}
	runner := strings.TrimSpace(record[0])
	team := strings.TrimSpace(record[1])
	if runner == "" || team == "" {
		return Row{}, fmt.Errorf("%w: empty runner or team name", ErrMalformedSheet)
	}

	seconds, err := rating.ParseDuration(record[2])
	if err != nil {
		return Row{}, err
	}

	row := Row{RunnerName: runner, TeamName: team, Seconds: seconds}
	if len(record) == 4 && strings.TrimSpace(record[3]) != "" {
		old, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil {
			return Row{}, fmt.Errorf("%w: rating %q", ErrMalformedSheet, record[3])
		}
		row.OldRating = &old
	}
	return row, nil
}
