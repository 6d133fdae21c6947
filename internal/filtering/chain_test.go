package filtering

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qscope/internal/logger"
	"qscope/pkg/models"
)

func msg(id string, body interface{}) models.FormattedMessage {
	return models.FormattedMessage{QueueName: "q", MessageID: id, Body: body, Attributes: map[string]string{}}
}

func sentAt(m models.FormattedMessage, t time.Time) models.FormattedMessage {
	m.Attributes = map[string]string{"SentTimestamp": strconv.FormatInt(t.UnixMilli(), 10)}
	return m
}

func ids(messages []models.FormattedMessage) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.MessageID)
	}
	return out
}

func TestEmptyDescription(t *testing.T) {
	p := EmptyDescription()

	tests := []struct {
		name string
		body interface{}
		want bool
	}{
		{"absent", map[string]interface{}{"x": 1}, true},
		{"empty string", map[string]interface{}{"description": ""}, true},
		{"null", map[string]interface{}{"description": nil}, true},
		{"present", map[string]interface{}{"description": "broken"}, false},
		{"whitespace is not empty", map[string]interface{}{"description": " "}, false},
		{"raw string body", "not json", false},
		{"array body", []interface{}{"a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Evaluate(msg("1", tt.body)))
		})
	}
}

func TestIDMatch(t *testing.T) {
	p := IDMatch("42")

	tests := []struct {
		name string
		body interface{}
		want bool
	}{
		{"id number", map[string]interface{}{"id": json.Number("42")}, true},
		{"id float text", map[string]interface{}{"id": "42.0"}, true},
		{"requestId", map[string]interface{}{"requestId": "42"}, true},
		{"itemId after mismatch", map[string]interface{}{"id": "7", "itemId": " 42 "}, true},
		{"no id fields", map[string]interface{}{"other": "42"}, false},
		{"different", map[string]interface{}{"userId": "43"}, false},
		{"null id skipped", map[string]interface{}{"id": nil}, false},
		{"raw body", "42", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Evaluate(msg("1", tt.body)))
		})
	}
}

func TestFieldEquals(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		body  interface{}
		want  bool
	}{
		{"exact string", "status", "FAILED", map[string]interface{}{"status": "FAILED"}, true},
		{"case sensitive", "status", "FAILED", map[string]interface{}{"status": "Failed"}, false},
		{"number", "code", "500", map[string]interface{}{"code": json.Number("500")}, true},
		{"bool", "ok", "true", map[string]interface{}{"ok": true}, true},
		{"bool is a json literal", "ok", "True", map[string]interface{}{"ok": true}, false},
		{"object compares as json", "meta", `{"a":1}`, map[string]interface{}{"meta": map[string]interface{}{"a": json.Number("1")}}, true},
		{"absent matches empty", "status", "", map[string]interface{}{}, true},
		{"absent does not match value", "status", "x", map[string]interface{}{}, false},
		{"non object body", "status", "x", "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FieldEquals(tt.field, tt.value).Evaluate(msg("1", tt.body)))
		})
	}
}

func TestTimeWindow(t *testing.T) {
	start := time.Date(2024, 1, 15, 14, 0, 0, 0, time.Local)
	end := time.Date(2024, 1, 15, 15, 0, 0, 0, time.Local)
	body := map[string]interface{}{}

	bounded := TimeWindow(&start, &end)
	openEnd := TimeWindow(&start, nil)

	assert.True(t, bounded.Evaluate(sentAt(msg("in", body), start.Add(30*time.Minute))))
	assert.True(t, bounded.Evaluate(sentAt(msg("edge", body), start)))
	assert.False(t, bounded.Evaluate(sentAt(msg("before", body), start.Add(-time.Minute))))
	assert.False(t, bounded.Evaluate(sentAt(msg("after", body), end.Add(time.Minute))))
	assert.True(t, openEnd.Evaluate(sentAt(msg("later", body), end.Add(24*time.Hour))))

	noTimestamp := msg("none", body)
	assert.True(t, bounded.Evaluate(noTimestamp))

	garbage := msg("garbage", body)
	garbage.Attributes = map[string]string{"SentTimestamp": "yesterday"}
	assert.True(t, bounded.Evaluate(garbage))

	assert.Equal(t, "messages between 2024-01-15 14:00 and 2024-01-15 15:00", bounded.Description())
	assert.Equal(t, "messages between 2024-01-15 14:00 and end", openEnd.Description())
}

func TestChain_EmptyIsIdentity(t *testing.T) {
	messages := []models.FormattedMessage{msg("a", "x"), msg("b", map[string]interface{}{})}
	chain := NewChain(logger.NopLogger())

	assert.Equal(t, messages, chain.Apply(messages))
	assert.Equal(t, 0, chain.Len())
	assert.Empty(t, chain.Descriptions())
}

func TestChain_ConjunctionPreservesOrder(t *testing.T) {
	messages := []models.FormattedMessage{
		msg("1", map[string]interface{}{"status": "FAILED"}),
		msg("2", map[string]interface{}{"status": "FAILED", "description": "x"}),
		msg("3", map[string]interface{}{"status": "OK"}),
		msg("4", "raw"),
		msg("5", map[string]interface{}{"status": "FAILED", "description": nil}),
	}

	chain := NewChain(logger.NopLogger(), FieldEquals("status", "FAILED"), EmptyDescription())
	assert.Equal(t, []string{"1", "5"}, ids(chain.Apply(messages)))
	assert.Equal(t, []string{
		"messages where field 'status' = 'FAILED'",
		"messages with an empty 'description' field",
	}, chain.Descriptions())
}

func TestChain_Associative(t *testing.T) {
	messages := []models.FormattedMessage{
		msg("1", map[string]interface{}{"status": "FAILED", "id": "9"}),
		msg("2", map[string]interface{}{"status": "FAILED", "id": "8"}),
		msg("3", map[string]interface{}{"status": "OK", "id": "9"}),
	}

	both := NewChain(nil, FieldEquals("status", "FAILED"), IDMatch("9")).Apply(messages)
	stepwise := NewChain(nil, IDMatch("9")).Apply(NewChain(nil, FieldEquals("status", "FAILED")).Apply(messages))

	assert.Equal(t, ids(both), ids(stepwise))
	assert.Equal(t, []string{"1"}, ids(both))
}

type countingPredicate struct {
	calls int
	pass  bool
}

func (p *countingPredicate) Kind() string        { return "counting" }
func (p *countingPredicate) Description() string { return "counting" }
func (p *countingPredicate) Evaluate(models.FormattedMessage) bool {
	p.calls++
	return p.pass
}

func TestChain_ShortCircuits(t *testing.T) {
	first := &countingPredicate{pass: false}
	second := &countingPredicate{pass: true}

	chain := NewChain(nil, first, second)
	kept := chain.Apply([]models.FormattedMessage{msg("1", "x"), msg("2", "y")})

	assert.Empty(t, kept)
	assert.Equal(t, 2, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestBuild(t *testing.T) {
	field, err := ParseFieldFlag("status:FAILED:retry")
	require.NoError(t, err)
	assert.Equal(t, "FAILED:retry", field.Value)

	chain, err := Build(nil, []Spec{
		{Kind: KindEmptyDescription},
		{Kind: KindID, Target: "42"},
		field,
		{Kind: KindTimeWindow, Start: "2024-01-15 14:30"},
		{Kind: KindCEL, Expression: `body.status == "FAILED:retry"`},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, chain.Len())

	kept := chain.Apply([]models.FormattedMessage{
		msg("ok", map[string]interface{}{"id": json.Number("42"), "status": "FAILED:retry"}),
		msg("no", map[string]interface{}{"id": json.Number("42"), "status": "FAILED"}),
	})
	assert.Equal(t, []string{"ok"}, ids(kept))
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"unknown kind", Spec{Kind: "regex"}},
		{"id without target", Spec{Kind: KindID}},
		{"field without name", Spec{Kind: KindField}},
		{"bad time", Spec{Kind: KindTimeWindow, Start: "15/01/2024"}},
		{"empty window", Spec{Kind: KindTimeWindow}},
		{"bad cel", Spec{Kind: KindCEL, Expression: "body.status =="}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(nil, []Spec{tt.spec})
			assert.Error(t, err)
		})
	}

	_, err := ParseFieldFlag("novalue")
	assert.Error(t, err)
}

func TestCELPredicate_ErrorIsNoMatch(t *testing.T) {
	chain, err := Build(nil, []Spec{{Kind: KindCEL, Expression: `body.missing == "x"`}})
	require.NoError(t, err)

	kept := chain.Apply([]models.FormattedMessage{msg("1", map[string]interface{}{})})
	assert.Empty(t, kept)
}
