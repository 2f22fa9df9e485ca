package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mercantile/storefront/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	require.Equal(t, "projects/shop/topics/orders", TopicResourceName("shop", "orders"))
	require.Equal(t, "projects/x/topics/y", TopicResourceName("shop", "projects/x/topics/y"))
	require.Empty(t, TopicResourceName("", "orders"))
	require.Empty(t, TopicResourceName("shop", "  "))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.PubSubConfig{}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)
}

func TestNilClientPublish(t *testing.T) {
	var c *Client
	_, err := c.Publish(context.Background(), "orders", []byte("{}"), nil)
	require.Error(t, err)
	require.NoError(t, c.Close())
}
