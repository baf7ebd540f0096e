package naming

import "time"

const (
	// CoverageBucket receives coverage reports; testing builds use a
	// suffixed variant.
	CoverageBucket = "oss-fuzz-coverage"

	// CoveragePlatform is the platform component of report paths. Builds
	// run on Linux only.
	CoveragePlatform = "linux"

	// LatestReportInfoContentType is the content type of the
	// latest-report-info document.
	LatestReportInfoContentType = "application/json"

	// Date layout for report paths.
	reportDateLayout = "20060102"
)

// Hand-off document telling downstream consumers where the most recent
// coverage report for a project lives. Written unstamped so it always
// reflects the latest run.
type LatestReportInfo struct {
	FuzzerStatsDir    string `json:"fuzzer_stats_dir"`
	HTMLReportURL     string `json:"html_report_url"`
	ReportDate        string `json:"report_date"`
	ReportSummaryPath string `json:"report_summary_path"`
}

// Coverage report addressing for one project and report date.
type Coverage struct {
	Project string
	Bucket  string // Report bucket, testing-aware.
	Date    string // Report date, YYYYMMDD.
}

// Creates the coverage addressing for a project report dated t.
func NewCoverage(project string, t time.Time, testing bool) Coverage {
	bucket := CoverageBucket
	if testing {
		bucket += testingSuffix
	}
	return Coverage{
		Project: project,
		Bucket:  bucket,
		Date:    t.UTC().Format(reportDateLayout),
	}
}

// Returns the public URL of the report's HTML entry point.
func (c Coverage) HTMLReportURL() string {
	return PublicURL(ObjectPath(c.Bucket, c.Project, "reports/"+c.Date+"/"+CoveragePlatform+"/index.html"))
}

// Returns the gs:// URL receiving uploads of the given artifact kind
// ("reports", "fuzzer_stats", "logs" or "srcmap") for this report date.
func (c Coverage) UploadURL(kind string) string {
	return "gs://" + c.Bucket + "/" + c.Project + "/" + kind + "/" + c.Date
}

// Returns the object path of the project's latest-report-info document.
//
// The path is pinned to the production bucket: consumers resolve it without
// knowing whether the report itself went to a testing bucket.
func (c Coverage) LatestReportInfoPath() string {
	return "/" + CoverageBucket + "/latest_report_info/" + c.Project + ".json"
}
