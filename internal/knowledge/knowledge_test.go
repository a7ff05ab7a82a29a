package knowledge

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartline-ai/heartline/internal/embedding"
)

func TestParseIntent(t *testing.T) {
	for _, in := range Intents() {
		got, err := ParseIntent(strings.ToLower(in.String()))
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}

	_, err := ParseIntent("When")
	assert.Error(t, err)
	assert.Equal(t, []Intent{What, Symptoms, Why, How}, Intents())
}

func TestParseCSV_SkippedRowLineSpansQuotedCells(t *testing.T) {
	src := "trigger_word,What,Why\n" +
		"Angina,\"Angina is chest pain.\nIt can spread to the arm.\",Narrowed arteries.\n" +
		",Orphan answer,\n"

	records, report, err := ParseCSV(strings.NewReader(src))
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "Angina is chest pain.\nIt can spread to the arm.", records[0].Answer(What))
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, 4, report.Skipped[0].Line)
}

func TestParseCSV_IntentColumns(t *testing.T) {
	src := `Trigger_Word,Synonyms,Keywords,What,Why,How,Symptoms
Angina,"chest pain, , angina pectoris",tight chest,Angina is chest pain.,Narrowed arteries.,,Pressure in the chest.
,orphan,,Orphan answer,,,
Empty,,,,,,
`
	records, report, err := ParseCSV(strings.NewReader(src))
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 1, report.Loaded)
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, 3, report.Skipped[0].Line)
	assert.Contains(t, report.Skipped[1].Reason, "no answers")

	angina := records[0]
	assert.Equal(t, "Angina", angina.Trigger)
	assert.Equal(t, []string{"chest pain", "angina pectoris"}, angina.Synonyms)
	assert.Equal(t, []string{"tight chest"}, angina.Keywords)
	assert.Equal(t, "Angina is chest pain.", angina.Answer(What))
	assert.Equal(t, "Narrowed arteries.", angina.Answer(Why))
	assert.Equal(t, "", angina.Answer(How))
	assert.Equal(t, "Pressure in the chest.", angina.Answer(Symptoms))
}

func TestParseCSV_ResponseColumn(t *testing.T) {
	src := "trigger_word,response\nStroke,A stroke interrupts blood flow to the brain.\n"

	records, _, err := ParseCSV(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A stroke interrupts blood flow to the brain.", records[0].Answer(What))
	assert.Nil(t, records[0].Synonyms)
}

func TestParseCSV_BadHeaders(t *testing.T) {
	tests := map[string]string{
		"empty":            "",
		"no trigger":       "synonyms,What\n",
		"no answer column": "trigger_word,synonyms\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParseCSV(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadCSV_SampleKnowledgeBase(t *testing.T) {
	records, report, err := LoadCSV("../../data/heart_health_triggers.csv")
	require.NoError(t, err)

	assert.Empty(t, report.Skipped)
	assert.Equal(t, report.Rows, len(records))
	assert.Equal(t, "Cholesterol", records[0].Trigger)
	for _, r := range records {
		assert.NoError(t, r.Validate())
	}
}

func TestBuild(t *testing.T) {
	records := []Record{
		{Trigger: "Angina", Synonyms: []string{"chest pain"}, Keywords: []string{"tight chest", "squeezing"}, Answers: [IntentCount]string{What: "a"}},
		{Trigger: "Cholesterol", Answers: [IntentCount]string{Why: "b"}},
	}

	var calls [][2]int
	idx, err := Build(context.Background(), records, embedding.NewMockClient(), BuildOptions{
		BatchSize: 3,
		Progress:  func(done, total int) { calls = append(calls, [2]int{done, total}) },
	})
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, "mock-bag-of-words", idx.Model())

	e := idx.Embeddings(0)
	assert.Len(t, e.Synonyms, 1)
	assert.Len(t, e.Keywords, 2)
	assert.InDelta(t, 1.0, embedding.Cosine(e.Trigger, e.Trigger), 1e-9)
	assert.Greater(t, embedding.Cosine(e.Synonyms[0], e.Keywords[0]), 0.0) // both contain "chest"

	empty := idx.Embeddings(1)
	assert.Nil(t, empty.Synonyms)
	assert.Nil(t, empty.Keywords)

	for _, in := range Intents() {
		assert.NotEmpty(t, idx.IntentEmbedding(in))
	}

	// 5 record texts + 4 intent names in batches of 3
	assert.Equal(t, [][2]int{{3, 9}, {6, 9}, {9, 9}}, calls)
	assert.Equal(t, []string{"angina", "chest", "cholesterol", "pain", "squeezing", "tight"}, idx.Vocabulary())
}

func TestBuild_RejectsInvalidRecords(t *testing.T) {
	_, err := Build(context.Background(), []Record{{Trigger: "x"}}, embedding.NewMockClient(), BuildOptions{})
	assert.Error(t, err)
}

func TestIndex_RecordsAreCopies(t *testing.T) {
	idx, err := Build(context.Background(), []Record{
		{Trigger: "Angina", Synonyms: []string{"chest pain"}, Answers: [IntentCount]string{What: "a"}},
	}, embedding.NewMockClient(), BuildOptions{})
	require.NoError(t, err)

	recs := idx.Records()
	recs[0].Synonyms[0] = "changed"
	assert.Equal(t, "chest pain", idx.Record(0).Synonyms[0])
}
