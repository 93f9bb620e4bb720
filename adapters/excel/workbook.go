package excel

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mezzanine/models"

	"github.com/xuri/excelize/v2"
)

// Sheet names of a session workbook
const (
	SessionSheet    = "Session"
	TranscriptSheet = "Transcript"
	BeliefsSheet    = "Beliefs"
)

var transcriptHeaders = []interface{}{
	"Seq", "Subject", "Answer", "Expected bits", "Bits gained",
	"Entropy before", "Entropy after", "Hypotheses left", "Subject JSON",
}

// Workbook is the content of a session workbook that can be played back
type Workbook struct {
	Session      models.GameSession
	Observations []models.ObservationRecord
}

// WriteWorkbook writes a session, its transcript and its beliefs as an xlsx
// workbook with one sheet each
func WriteWorkbook(w io.Writer, session *models.GameSession, transcript []models.TranscriptEntry, beliefs []models.BeliefView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SessionSheet); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"ID", session.ID},
		{"Game", session.Game},
		{"Bound", session.Bound},
		// Seeds exceed float precision, so they are stored as text.
		{"Seed", strconv.FormatInt(session.Seed, 10)},
		{"State", string(session.State)},
		{"Conclusion", session.Conclusion},
		{"Prior hash", session.PriorHash},
	}
	if err := writeRows(f, SessionSheet, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(TranscriptSheet); err != nil {
		return err
	}
	rows = [][]interface{}{transcriptHeaders}
	for _, entry := range transcript {
		rows = append(rows, []interface{}{
			entry.Seq, entry.Subject, answer(entry.Verdict), entry.Value, entry.BitsGained(),
			entry.EntropyBefore, entry.EntropyAfter, entry.Remaining, string(entry.SubjectJSON),
		})
	}
	if err := writeRows(f, TranscriptSheet, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(BeliefsSheet); err != nil {
		return err
	}
	rows = [][]interface{}{{"Rank", "Hypothesis", "Probability"}}
	for i, belief := range beliefs {
		rows = append(rows, []interface{}{i + 1, belief.Description, belief.Probability})
	}
	if err := writeRows(f, BeliefsSheet, rows); err != nil {
		return err
	}

	return f.Write(w)
}

// SaveWorkbook writes a session workbook to path
func SaveWorkbook(path string, session *models.GameSession, transcript []models.TranscriptEntry, beliefs []models.BeliefView) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWorkbook(f, session, transcript, beliefs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func answer(verdict bool) string {
	if verdict {
		return "yes"
	}
	return "no"
}

// ReadWorkbook reads back the session header and the answered questions of
// a workbook written by WriteWorkbook
func ReadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	book := &Workbook{}
	rows, err := f.GetRows(SessionSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s sheet: %w", SessionSheet, err)
	}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		key, value := row[0], strings.TrimSpace(row[1])
		switch key {
		case "ID":
			book.Session.ID = value
		case "Game":
			book.Session.Game = value
		case "Bound":
			if book.Session.Bound, err = strconv.Atoi(value); err != nil {
				return nil, fmt.Errorf("invalid bound %q: %w", value, err)
			}
		case "Seed":
			if book.Session.Seed, err = strconv.ParseInt(value, 10, 64); err != nil {
				return nil, fmt.Errorf("invalid seed %q: %w", value, err)
			}
		case "State":
			book.Session.State = models.SessionState(value)
		case "Conclusion":
			book.Session.Conclusion = value
		case "Prior hash":
			book.Session.PriorHash = value
		}
	}
	if book.Session.Game == "" {
		return nil, fmt.Errorf("%s sheet names no game", SessionSheet)
	}

	rows, err = f.GetRows(TranscriptSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s sheet: %w", TranscriptSheet, err)
	}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < len(transcriptHeaders) {
			return nil, fmt.Errorf("transcript row %d has %d columns, want %d", i+1, len(row), len(transcriptHeaders))
		}
		seq, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("transcript row %d: invalid sequence %q", i+1, row[0])
		}
		verdict, err := parseAnswer(row[2])
		if err != nil {
			return nil, fmt.Errorf("transcript row %d: %w", i+1, err)
		}
		book.Observations = append(book.Observations, models.ObservationRecord{
			SessionID: book.Session.ID,
			Seq:       seq,
			Subject:   models.JSONBRaw(row[8]),
			Verdict:   verdict,
		})
	}
	return book, nil
}

func parseAnswer(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	verdict, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid answer %q", s)
	}
	return verdict, nil
}
