package service

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportServiceRoster(t *testing.T) {
	c := newCampus(t)
	ctx := context.Background()
	course := c.course(t, "Databases", 5)
	c.enroll(t, c.student(t, "Ada Lovelace", "ada@campus.test"), course)
	svc := NewExportService(c.courses, nil)

	csv, err := svc.Roster(ctx, course, "")
	require.NoError(t, err)
	assert.Equal(t, "roster_C2001.csv", csv.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", csv.ContentType)
	lines := bytes.Split(bytes.TrimSpace(csv.Body), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, "enrollmentId,studentId,name,email,enrolledAt", string(lines[0]))
	assert.Contains(t, string(lines[1]), "E3001,S1001,Ada Lovelace,ada@campus.test,")

	pdf, err := svc.Roster(ctx, course, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, bytes.HasPrefix(pdf.Body, []byte("%PDF-")))
}

func TestExportServiceRosterErrors(t *testing.T) {
	c := newCampus(t)
	svc := NewExportService(c.courses, nil)

	_, err := svc.Roster(context.Background(), "C9999", "csv")
	requireAppError(t, err, http.StatusNotFound, "Course not found")

	_, err = svc.Roster(context.Background(), "C9999", "xlsx")
	requireAppError(t, err, http.StatusBadRequest, "Unsupported export format: xlsx")
}
