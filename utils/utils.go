package utils

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/SergJa/jsonhash"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/domain"
)

const livenessFile = "/tmp/ready"

// CanonicalHash hashes a JSON document independently of key order.
func CanonicalHash(in []byte) (string, error) {
	hash, err := jsonhash.CalculateJsonHash(in, nil)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(hash[:]), nil
}

// CanonicalHashOf marshals v and hashes it with CanonicalHash.
func CanonicalHashOf(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	return CanonicalHash(data)
}

func ContextFromGeneric(parent context.Context, generic domain.Generic) context.Context {
	if generic.MsgId == "" {
		generic.MsgId = uuid.NewString()
	}
	return context.WithValue(parent, domain.ContextKeyMsgId, generic.MsgId)
}

func MsgIdFromContext(ctx context.Context) string {
	if msgId, ok := ctx.Value(domain.ContextKeyMsgId).(string); ok {
		return msgId
	}
	return ""
}

func ContextFromSession(parent context.Context, id domain.SessionIdentifier) context.Context {
	return context.WithValue(parent, domain.ContextKeySessionIdentifier, id)
}

func SessionIdentifierFromContext(ctx context.Context) domain.SessionIdentifier {
	if id, ok := ctx.Value(domain.ContextKeySessionIdentifier).(domain.SessionIdentifier); ok {
		return id
	}
	return domain.SessionIdentifier{}
}

// NewBackOff is the exponential backoff used to (re)connect to remote services.
func NewBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	// never stop retrying
	b.MaxElapsedTime = 0
	return b
}

// NewFixedBackOff retries attempts-1 times, waiting d between tries.
func NewFixedBackOff(d time.Duration, attempts int) backoff.BackOff {
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(d), uint64(attempts-1))
}

// Seconds converts d to seconds rounded to 4 decimals.
func Seconds(d time.Duration) float64 {
	return Round(d.Seconds(), 4)
}

// Round rounds f to the given number of decimals.
func Round(f float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(f*p) / p
}

// ServePprof starts the pprof endpoints when ENABLE_PROFILER is set.
func ServePprof() {
	if _, ok := os.LookupEnv("ENABLE_PROFILER"); !ok {
		return
	}
	go func() {
		logger.L().Info("starting pprof server", helpers.String("port", "6060"))
		logger.L().Error("pprof server stopped", helpers.Error(http.ListenAndServe(":6060", nil)))
	}()
}

// StartLivenessProbe creates the file checked by the liveness probe.
func StartLivenessProbe() {
	if f, err := os.Create(livenessFile); err != nil {
		logger.L().Warning("unable to create liveness file", helpers.Error(err))
	} else {
		_ = f.Close()
	}
}
