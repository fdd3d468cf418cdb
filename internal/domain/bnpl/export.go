package bnpl

import (
	"context"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type exportRow struct {
	Vendor       string `csv:"vendor"`
	Amount       string `csv:"amount"`
	Installments int    `csv:"installments"`
	DueDate      string `csv:"due_date"`
	Confidence   string `csv:"confidence"`
	Subject      string `csv:"subject"`
	CreatedAt    string `csv:"created_at"`
}

func exportRows(records []*Record) []*exportRow {
	rows := make([]*exportRow, len(records))
	for i, rec := range records {
		rows[i] = &exportRow{
			Vendor:       rec.Vendor,
			Amount:       rec.Amount.StringFixed(2),
			Installments: rec.Installments,
			DueDate:      rec.DueDate,
			Confidence:   string(rec.Confidence),
			Subject:      rec.Subject,
			CreatedAt:    rec.CreatedAt.Format("2006-01-02"),
		}
	}
	return rows
}

// ExportCSV writes the user's records as CSV.
func (s *Service) ExportCSV(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	rows := exportRows(records)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// ExportXLSX writes the user's records as an Excel workbook.
func (s *Service) ExportXLSX(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Obligations"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	header := []any{"Vendor", "Amount (INR)", "Installments", "Due Date", "Confidence", "Subject", "Recorded"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range exportRows(records) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row: %w", err)
		}
		values := []any{row.Vendor, row.Amount, row.Installments, row.DueDate, row.Confidence, row.Subject, row.CreatedAt}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
