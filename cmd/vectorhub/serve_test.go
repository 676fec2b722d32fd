package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordflowlab/vectorhub/pkg/appconfig"
	"github.com/wordflowlab/vectorhub/pkg/embedding"
	"github.com/wordflowlab/vectorhub/pkg/index"
	"github.com/wordflowlab/vectorhub/pkg/index/memory"
	"github.com/wordflowlab/vectorhub/pkg/logging"
)

func TestApplyAddr(t *testing.T) {
	cfg := appconfig.Default()
	require.NoError(t, applyAddr(cfg, "127.0.0.1:9090"))
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)

	require.NoError(t, applyAddr(cfg, ":7000"))
	assert.Equal(t, "", cfg.Server.Host)
	assert.Equal(t, 7000, cfg.Server.Port)

	assert.Error(t, applyAddr(cfg, "nohost"))
	assert.Error(t, applyAddr(cfg, "host:http"))
}

func TestOpenIndex_Memory(t *testing.T) {
	idx, err := openIndex(context.Background(), appconfig.IndexConfig{Kind: "memory", Name: "local", Dimensions: 4})
	require.NoError(t, err)
	defer idx.Close()

	desc, err := idx.Describe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "local", desc.Name)
	assert.Equal(t, 4, desc.Dimensions)

	_, err = openIndex(context.Background(), appconfig.IndexConfig{Kind: "faiss"})
	assert.Error(t, err)
}

func TestNewEmbedder(t *testing.T) {
	assert.IsType(t, &embedding.MockEmbedder{}, newEmbedder(appconfig.EmbeddingConfig{Provider: "mock", Dimensions: 4}))
	assert.IsType(t, &embedding.OpenAIEmbedder{}, newEmbedder(appconfig.EmbeddingConfig{Provider: "openai"}))
}

func TestApplyLogLevel(t *testing.T) {
	prev := logging.Default.Level()
	t.Cleanup(func() { logging.Default.SetLevel(prev) })

	applyLogLevel(context.Background(), "debug")
	assert.Equal(t, logging.LevelDebug, logging.Default.Level())

	applyLogLevel(context.Background(), "bogus")
	assert.Equal(t, logging.LevelDebug, logging.Default.Level())
}

type pingingIndex struct {
	index.Index
	err error
}

func (p pingingIndex) Ping(context.Context) error { return p.err }

func TestIndexCheck(t *testing.T) {
	ctx := context.Background()
	idx, err := memory.New(memory.Config{Name: "local", Dimensions: 4})
	require.NoError(t, err)

	check := indexCheck(idx)
	assert.Equal(t, "index", check.Name())
	assert.NoError(t, check.Check(ctx))

	down := errors.New("connection refused")
	assert.ErrorIs(t, indexCheck(pingingIndex{Index: idx, err: down}).Check(ctx), down)
	assert.NoError(t, indexCheck(pingingIndex{Index: idx}).Check(ctx))
}
