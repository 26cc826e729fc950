package utils

import (
	"context"
	"testing"
	"time"

	"github.com/negbuzz/negbuzz/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalHash(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    string
		wantErr bool
	}{
		{
			name:    "error",
			in:      []byte("test"),
			wantErr: true,
		},
		{
			name: "empty",
			in:   []byte("{}"),
			want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name: "simple",
			in:   []byte(`{"a":"b"}`),
			want: "baf4fd048ca2e8f75d531af13c5869eaa8e38c3020e1dfcebe3c3ac019a3bab2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalHash(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("CanonicalHash() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalHash_KeyOrder(t *testing.T) {
	a, err := CanonicalHash([]byte(`{"title":"Vinamilk","type":"newsTopic"}`))
	require.NoError(t, err)
	b, err := CanonicalHash([]byte(`{"type":"newsTopic","title":"Vinamilk"}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := CanonicalHashOf(map[string]string{"title": "Vinamilk", "type": "newsTopic"})
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestContextFromGeneric(t *testing.T) {
	got := ContextFromGeneric(context.TODO(), domain.Generic{})
	assert.NotEmpty(t, MsgIdFromContext(got))

	got = ContextFromGeneric(context.TODO(), domain.Generic{MsgId: "abc"})
	assert.Equal(t, "abc", MsgIdFromContext(got))

	assert.Empty(t, MsgIdFromContext(context.TODO()))
}

func TestSessionIdentifier_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		id   domain.SessionIdentifier
	}{
		{
			name: "empty",
			id:   domain.SessionIdentifier{},
		},
		{
			name: "full",
			id: domain.SessionIdentifier{
				SessionId:      "sid",
				RemoteAddr:     "127.0.0.1:1234",
				ClientName:     "smoke",
				ClientVersion:  "v1",
				ConnectionTime: time.Unix(1700000000, 0),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextFromSession(context.TODO(), tt.id)
			got := SessionIdentifierFromContext(ctx)
			assert.Equal(t, tt.id, got)
		})
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 66.67, Round(200.0/3.0, 2))
	assert.Equal(t, 1.2346, Seconds(1234567*time.Microsecond))
}

func TestNewFixedBackOff(t *testing.T) {
	b := NewFixedBackOff(time.Millisecond, 3)
	assert.Equal(t, time.Millisecond, b.NextBackOff())
	assert.Equal(t, time.Millisecond, b.NextBackOff())
	assert.Equal(t, time.Duration(-1), b.NextBackOff())
}
