package artifact

import (
	"time"

	"github.com/KaramelBytes/dqcheck-cli/internal/catalog"
	"github.com/KaramelBytes/dqcheck-cli/internal/pipeline"
	"github.com/KaramelBytes/dqcheck-cli/internal/profile"
	"github.com/KaramelBytes/dqcheck-cli/internal/quality"
)

// BasicInfo describes the dataset shape.
type BasicInfo struct {
	Shape   [2]int                  `yaml:"shape" json:"shape"`
	Columns []string                `yaml:"columns" json:"columns"`
	Kinds   map[string]profile.Kind `yaml:"kinds,omitempty" json:"kinds,omitempty"`
}

// ValidationDocument is the validation report artifact. It carries no run
// id, so re-validating unchanged data yields the same content.
type ValidationDocument struct {
	FilePath       string          `yaml:"filepath" json:"filepath"`
	ValidatedAt    time.Time       `yaml:"validated_at" json:"validated_at"`
	BasicInfo      BasicInfo       `yaml:"basic_info" json:"basic_info"`
	QualityMetrics quality.Metrics `yaml:"quality_metrics" json:"quality_metrics"`
	Issues         []quality.Issue `yaml:"issues" json:"issues"`
	Statistics     quality.Stats   `yaml:"statistics" json:"statistics"`
}

// ProfileDocument is the profile report artifact.
type ProfileDocument struct {
	FilePath       string           `yaml:"filepath" json:"filepath"`
	ProfiledAt     time.Time        `yaml:"profiled_at" json:"profiled_at"`
	DatasetInfo    BasicInfo        `yaml:"dataset_info" json:"dataset_info"`
	ColumnProfiles profile.Profiles `yaml:"column_profiles" json:"column_profiles"`
}

// Summary is the headline block of the quality report.
type Summary struct {
	Rows            int     `yaml:"rows" json:"rows"`
	Columns         int     `yaml:"columns" json:"columns"`
	OverallScore    float64 `yaml:"overall_score" json:"overall_score"`
	Issues          int     `yaml:"issues" json:"issues"`
	Recommendations int     `yaml:"recommendations" json:"recommendations"`
}

// ValidationSection is the validation part of the quality report.
type ValidationSection struct {
	QualityMetrics quality.Metrics `yaml:"quality_metrics" json:"quality_metrics"`
	Issues         []quality.Issue `yaml:"issues" json:"issues"`
}

// QualityDocument is the merged quality report artifact.
type QualityDocument struct {
	FilePath        string            `yaml:"filepath" json:"filepath"`
	RunID           string            `yaml:"run_id" json:"run_id"`
	GeneratedAt     time.Time         `yaml:"generated_at" json:"generated_at"`
	Summary         Summary           `yaml:"summary" json:"summary"`
	Validation      ValidationSection `yaml:"validation" json:"validation"`
	Profile         profile.Profiles  `yaml:"profile" json:"profile"`
	Recommendations []string          `yaml:"recommendations" json:"recommendations"`
	Dataset         *catalog.Entry    `yaml:"dataset,omitempty" json:"dataset,omitempty"`
}

func basicInfo(res *pipeline.Result, withKinds bool) BasicInfo {
	bi := BasicInfo{Shape: [2]int{res.Rows, res.Cols}, Columns: res.Profiles.Names()}
	if withKinds {
		bi.Kinds = res.Profiles.Kinds()
	}
	return bi
}

func nonNilIssues(in []quality.Issue) []quality.Issue {
	if in == nil {
		return []quality.Issue{}
	}
	return in
}

// NewValidationDocument builds the validation artifact for res.
func NewValidationDocument(res *pipeline.Result, at time.Time) ValidationDocument {
	st := res.Validation.Stats
	if st.InconsistentColumns == nil {
		st.InconsistentColumns = []string{}
	}
	return ValidationDocument{
		FilePath:       res.Path,
		ValidatedAt:    at,
		BasicInfo:      basicInfo(res, true),
		QualityMetrics: res.Validation.Metrics,
		Issues:         nonNilIssues(res.Validation.Issues),
		Statistics:     st,
	}
}

// NewProfileDocument builds the profile artifact for res.
func NewProfileDocument(res *pipeline.Result, at time.Time) ProfileDocument {
	return ProfileDocument{
		FilePath:       res.Path,
		ProfiledAt:     at,
		DatasetInfo:    basicInfo(res, false),
		ColumnProfiles: res.Profiles,
	}
}

// NewQualityDocument builds the merged quality artifact for res.
func NewQualityDocument(res *pipeline.Result, at time.Time) QualityDocument {
	r := res.Report
	recs := r.Recommendations()
	if recs == nil {
		recs = []string{}
	}
	issues := nonNilIssues(r.Issues())
	return QualityDocument{
		FilePath:    res.Path,
		RunID:       res.RunID,
		GeneratedAt: at,
		Summary: Summary{
			Rows:            res.Rows,
			Columns:         res.Cols,
			OverallScore:    r.Metrics().OverallScore,
			Issues:          len(issues),
			Recommendations: len(recs),
		},
		Validation:      ValidationSection{QualityMetrics: r.Metrics(), Issues: issues},
		Profile:         r.Profiles(),
		Recommendations: recs,
		Dataset:         res.Dataset,
	}
}
