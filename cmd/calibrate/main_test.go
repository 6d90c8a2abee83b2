package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/okian/resonance/internal/calibration"
	. "github.com/smartystreets/goconvey/convey"
)

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	Convey("Given the run subcommand on a coarse grid", t, func() {
		out, err := execute("run", "--samples", "100", "--step", "0.5", "--folds", "2", "--workers", "2", "--format", "json")
		So(err, ShouldBeNil)

		Convey("Then a JSON report should be printed", func() {
			var report calibration.Report
			So(json.Unmarshal([]byte(out), &report), ShouldBeNil)
			So(report.Samples, ShouldEqual, 100)
			So(report.Seed, ShouldEqual, uint64(42))
			So(report.Evaluated, ShouldEqual, 10)
			So(len(report.Models), ShouldEqual, len(calibration.ModelNames))
		})
	})

	Convey("Given an output file", t, func() {
		path := filepath.Join(t.TempDir(), "report.txt")
		out, err := execute("run", "-n", "100", "--step", "1", "--folds", "2", "-o", path)
		So(err, ShouldBeNil)

		Convey("Then the table should go to the file", func() {
			So(out, ShouldBeEmpty)
			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "ensemble R2")
		})
	})

	Convey("Given an invalid step", t, func() {
		_, err := execute("run", "-n", "100", "--step", "0.3")

		Convey("Then the command should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestAuditCommand(t *testing.T) {
	Convey("Given the audit subcommand without target noise", t, func() {
		out, err := execute("audit-prior", "-n", "300", "--feature-noise", "1", "--target-noise", "0", "-f", "json")
		So(err, ShouldBeNil)

		Convey("Then the fit should match the prior", func() {
			var audit calibration.PriorAudit
			So(json.Unmarshal([]byte(out), &audit), ShouldBeNil)
			So(audit.Samples, ShouldEqual, 300)
			So(audit.R2, ShouldAlmostEqual, 1, 1e-6)
		})
	})

	Convey("Given an unknown format", t, func() {
		_, err := execute("audit-prior", "-n", "300", "-f", "xml")

		Convey("Then the command should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
