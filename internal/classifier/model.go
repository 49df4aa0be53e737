package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/graemeboulton/job-insights-project/internal/store"
)

// ErrNoTrainingData indicates the staging layer supplied no titles to
// train on.
var ErrNoTrainingData = errors.New("no job titles available to train on")

// DefaultModelPath is where the trained model lands unless overridden.
const DefaultModelPath = "job_classifier_model.json"

// negativeSeedTitles are known false positives from past manual review:
// titles the scrapers picked up that are not data/BI/analyst roles.
// They stand in for the deleted landing rows we no longer have.
var negativeSeedTitles = []string{
	"Accountant", "Management Accountant", "Financial Accountant",
	"Account Manager", "Account Executive", "Account Handler",
	"Fabric Technician", "Fabric Engineer", "Fabric Supervisor",
	"Billing Assistant", "Billing Manager", "Billing Clerk",
	"Administrator", "Office Administrator", "System Administrator",
	"Receptionist", "HR Administrator", "Finance Administrator",
	"Sales Executive", "Business Development Manager", "Sales Manager",
	"Trainee Accountant", "Junior Accountant", "Accounts Assistant",
	"Fabric Maintenance Engineer", "Building Maintenance Engineer",
	"Fabric Cutter", "Warehouse Manager",
}

// TrainFromStore trains on the staging layer's titles as positives
// against the built-in negative seed list.
func TrainFromStore(ctx context.Context, src store.TitleSource) (*Model, error) {
	positives, err := src.JobTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load training titles: %w", err)
	}
	return Train(positives, negativeSeedTitles)
}

// Save writes the model as JSON.
func (m *Model) Save(path string) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Load reads a model previously written by Save.
func Load(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	if len(m.Vocabulary) == 0 || len(m.IDF) != len(m.Vocabulary) {
		return nil, fmt.Errorf("load model %s: malformed vocabulary", path)
	}
	return &m, nil
}
