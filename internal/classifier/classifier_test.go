package classifier

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graemeboulton/job-insights-project/internal/store"
)

var trainingPositives = []string{
	"Senior Data Engineer", "Data Engineer", "Lead Data Engineer",
	"Data Analyst", "Senior Data Analyst", "Junior Data Analyst",
	"BI Developer", "Senior BI Developer", "Power BI Developer",
	"Business Intelligence Analyst", "Business Intelligence Manager",
	"Analytics Engineer", "Data Scientist", "Machine Learning Engineer",
	"SQL Developer", "Data Warehouse Developer", "ETL Developer",
	"Insight Analyst", "Reporting Analyst", "Data Platform Engineer",
}

func trainedModel(t *testing.T) *Model {
	t.Helper()
	m, err := Train(trainingPositives, negativeSeedTitles)
	require.NoError(t, err)
	return m
}

func TestTrainRequiresPositives(t *testing.T) {
	_, err := Train(nil, negativeSeedTitles)
	assert.ErrorIs(t, err, ErrNoTrainingData)
}

func TestClassifyRelevantTitles(t *testing.T) {
	m := trainedModel(t)
	for _, title := range []string{
		"Senior Data Engineer",
		"Data Analyst",
		"Power BI Developer",
		"Business Intelligence Manager",
	} {
		res := m.Classify(title, 0.5)
		assert.True(t, res.Relevant, "%s scored %.3f", title, res.Confidence)
	}
}

func TestClassifyIrrelevantTitles(t *testing.T) {
	m := trainedModel(t)
	for _, title := range []string{
		"Accountant",
		"Fabric Technician",
		"Receptionist",
		"Building Maintenance Engineer",
	} {
		res := m.Classify(title, 0.5)
		assert.False(t, res.Relevant, "%s scored %.3f", title, res.Confidence)
	}
}

func TestConfidenceBounds(t *testing.T) {
	m := trainedModel(t)
	for _, title := range append(append([]string{}, trainingPositives...), negativeSeedTitles...) {
		res := m.Classify(title, 0.5)
		assert.GreaterOrEqual(t, res.Confidence, 0.0)
		assert.LessOrEqual(t, res.Confidence, 1.0)
	}
}

func TestClassifyBatchMatchesSingle(t *testing.T) {
	m := trainedModel(t)
	titles := []string{"Data Analyst", "Accountant", "ETL Developer"}
	batch := m.ClassifyBatch(titles, 0.5)
	require.Len(t, batch, 3)
	for i, title := range titles {
		assert.Equal(t, m.Classify(title, 0.5), batch[i])
	}
}

func TestThresholdShiftsDecision(t *testing.T) {
	m := trainedModel(t)
	res := m.Classify("Data Analyst", 0.5)
	require.True(t, res.Relevant)
	strict := m.Classify("Data Analyst", res.Confidence+0.01)
	assert.False(t, strict.Relevant, "raising the threshold above the score flips the decision")
}

func TestTokenize(t *testing.T) {
	terms := tokenize("Senior Data-Engineer (SQL)")
	assert.Contains(t, terms, "senior")
	assert.Contains(t, terms, "data")
	assert.Contains(t, terms, "engineer")
	assert.Contains(t, terms, "sql")
	assert.Contains(t, terms, "senior data", "bigrams included")
	assert.NotContains(t, terms, "Senior", "lowercased")
}

func TestModelRoundTrip(t *testing.T) {
	m := trainedModel(t)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	orig := m.Classify("Power BI Developer", 0.5)
	again := loaded.Classify("Power BI Developer", 0.5)
	assert.Equal(t, orig.Relevant, again.Relevant)
	assert.InDelta(t, orig.Confidence, again.Confidence, 1e-9)
}

func TestLoadRejectsMalformedModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, (&Model{}).Save(path))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestTrainFromStore(t *testing.T) {
	m := store.NewMemory()
	m.SetTitles(trainingPositives...)

	model, err := TrainFromStore(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, len(trainingPositives), model.Positives)
	assert.Equal(t, len(negativeSeedTitles), model.Negatives)
	assert.True(t, model.Classify("Data Engineer", 0.5).Relevant)
}

func TestTrainFromEmptyStore(t *testing.T) {
	m := store.NewMemory()
	_, err := TrainFromStore(context.Background(), m)
	assert.ErrorIs(t, err, ErrNoTrainingData)
}
