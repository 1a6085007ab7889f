package gasoracle

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ostium-labs/arbbot/internal/config"
	"github.com/ostium-labs/arbbot/pkg/observability"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(config.ObservabilityConfig{ServiceName: "arbbot-test", LogLevel: "error", LogFormat: "json"})
}

type fakeTxPool struct {
	pendingGasPricesWei []int64
}

func (f *fakeTxPool) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	pending := map[string]map[string]json.RawMessage{"0xsender": {}}
	for i, wei := range f.pendingGasPricesWei {
		pending["0xsender"][string(rune('a'+i))] = json.RawMessage(`{"gasPrice":"0x` + big.NewInt(wei).Text(16) + `"}`)
	}
	raw, err := json.Marshal(map[string]interface{}{"pending": pending})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}

type fakeSuggester struct {
	price *big.Int
	err error
}

func (f *fakeSuggester) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return f.price, f.err
}

func TestReadFallsBackWhenPoolEmpty(t *testing.T) {
	o := New(&fakeTxPool{}, nil, testLogger(), &observability.MetricsProvider{})
	o.client = &fakeSuggester{price: big.NewInt(100)}

	s, err := o.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100", s.Low.String())
	assert.Equal(t, "102", s.Medium.String())
	assert.Equal(t, "104", s.High.String())
	assert.Equal(t, "200", s.Ludicrous.String())
}

func TestReadUsesPendingGasPrices(t *testing.T) {
	o := New(&fakeTxPool{pendingGasPricesWei: []int64{10, 50, 30, 20, 40}}, nil, testLogger(), &observability.MetricsProvider{})

	s, err := o.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "50", s.High.String())
	assert.Equal(t, "10", s.Low.String())
	assert.Equal(t, "150", s.Ludicrous.String())
}
