package model

// ResultsExport is the top-level JSON structure for exporting submissions.
type ResultsExport struct {
	ExamID       string              `json:"exam_id,omitempty"`
	ExamTitle    string              `json:"exam_title,omitempty"`
	Count        int                 `json:"count"`
	AverageScore float64             `json:"average_score"`
	Results      []StudentSubmission `json:"results"`
}

// Snapshot is the whole application state at one point in time.
type Snapshot struct {
	ReviewQuestions []Question          `json:"reviewQuestions"`
	ExamQuestions   []Question          `json:"examQuestions"`
	Exams           []ExamConfig        `json:"exams"`
	Accounts        []StudentAccount    `json:"studentAccounts"`
	Submissions     []StudentSubmission `json:"submissions"`
	Curriculum      []CurriculumItem    `json:"curriculum"`
}
