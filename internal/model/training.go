package model

import "time"

// TrainingSample is one labeled description in the append-only training log.
type TrainingSample struct {
	AddedAt     time.Time `yaml:"added_at"`
	Description string    `yaml:"description"`
	Category    string    `yaml:"category"`
	Subcategory string    `yaml:"subcategory"`
	Manual      bool      `yaml:"manual"`
}

// Label returns the composite class label the statistical model trains on.
func (s TrainingSample) Label() string {
	return s.Category + "/" + s.Subcategory
}

// TrainResult reports the outcome of one classifier training call.
// Failure is a reported result, never an error.
type TrainResult struct {
	Message     string
	Categories  []string
	SamplesUsed int
	Success     bool
}

// RetrainReport is one entry in the retraining audit trail.
type RetrainReport struct {
	Timestamp   time.Time `yaml:"timestamp"`
	ModelType   string    `yaml:"model_type"`
	Message     string    `yaml:"message"`
	SamplesUsed int       `yaml:"samples_used"`
	Accuracy    float64   `yaml:"accuracy"`
	Success     bool      `yaml:"success"`
}

// TrainingStats summarizes the accumulated training corpus.
type TrainingStats struct {
	Categories       map[string]int
	TotalSamples     int
	ManualSamples    int
	MinSamplesNeeded int
	ReadyToTrain     bool
}
