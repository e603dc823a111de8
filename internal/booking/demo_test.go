package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/portfolio-callbooking/pkg/logging"
)

func TestDemoSubmitter_FabricatesConfirmation(t *testing.T) {
	d := NewDemoSubmitter(logging.Discard())
	d.now = func() time.Time { return time.UnixMilli(1767225600000) }

	conf, err := d.CreateAppointment(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "demo-1767225600000", conf.AppointmentID)
	assert.True(t, strings.HasPrefix(conf.EventID, "evt-"))
	assert.True(t, conf.Demo)
	assert.False(t, conf.Published)
	assert.False(t, conf.KafkaEnabled)
}

func TestDemoSubmitter_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDemoSubmitter(nil).CreateAppointment(ctx, sampleRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectSubmitter(t *testing.T) {
	client := NewClient("http://backend.test", time.Second, logging.Discard())

	_, isDemo := SelectSubmitter(true, client, nil).(*DemoSubmitter)
	assert.True(t, isDemo)
	assert.Same(t, client, SelectSubmitter(false, client, nil))
}
