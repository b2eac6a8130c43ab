package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pun_archiver/internal/domain"
)

func TestRabbitMQ_RoutingKey(t *testing.T) {
	r := &RabbitMQ{routingKey: "puns"}

	assert.Equal(t, "puns.#", r.bindingKey())
	assert.Equal(t, "puns.2024", r.RoutingKey(&domain.ArchivedPun{
		Post: domain.Post{CreatedAt: time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)},
	}))
}

func TestArchiveMessage_FieldNames(t *testing.T) {
	body, err := json.Marshal(ArchiveMessage{
		Action: ActionArchived,
		Archived: domain.ArchivedPun{
			Post: domain.Post{ID: "1", Text: "a\n\nb", CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
			Pun:  domain.ParsedPun{Setup: "a", Punchline: "b"},
			Date: "01/02/2024",
		},
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))

	archived := got["archived"].(map[string]any)
	assert.Equal(t, map[string]any{"id": "1", "text": "a\n\nb", "created_at": "2024-01-02T00:00:00Z"}, archived["post"])
	assert.Equal(t, map[string]any{"setup": "a", "punchline": "b"}, archived["pun"])
	assert.Equal(t, "01/02/2024", archived["date"])
}

func TestRabbitMQ_CloseUnconnected(t *testing.T) {
	assert.NoError(t, (&RabbitMQ{}).Close())
}
