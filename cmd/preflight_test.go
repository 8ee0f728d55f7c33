package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridiron-data/warehouse-cli/internal/coverage"
	"github.com/gridiron-data/warehouse-cli/internal/preflight"
)

func TestPreflightShouldExit(t *testing.T) {
	clean := &preflight.Report{Datasets: []preflight.DatasetReport{{}}}
	errored := &preflight.Report{Datasets: []preflight.DatasetReport{
		{NoCurrent: true},
	}}
	gapped := &preflight.Report{Datasets: []preflight.DatasetReport{
		{Gap: &coverage.Gap{Source: "statsinc", Dataset: "weekly_stats", MissingPeriods: []int{2020}}},
	}}

	tests := []struct {
		name       string
		report     *preflight.Report
		fail       bool
		failOnGaps bool
		want       bool
	}{
		{name: "plain run reports errors without exiting", report: errored, want: false},
		{name: "plain run reports gaps without exiting", report: gapped, want: false},
		{name: "fail gates on blocking findings", report: errored, fail: true, want: true},
		{name: "fail ignores advisory findings", report: gapped, fail: true, want: false},
		{name: "fail-on-gaps gates on advisory findings", report: gapped, failOnGaps: true, want: true},
		{name: "fail-on-gaps ignores blocking findings", report: errored, failOnGaps: true, want: false},
		{name: "clean report never exits", report: clean, fail: true, failOnGaps: true, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, preflightShouldExit(tt.report, tt.fail, tt.failOnGaps))
		})
	}
}
