//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/OuyangWenyu/et-demands/internal/adapter/climatecsv"
	"github.com/OuyangWenyu/et-demands/internal/domain"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker for the duration of the test and
// returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("cropet-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// writeClimate writes two years of mid-latitude weather for each cell into
// a temporary directory and returns it.
func writeClimate(t *testing.T, cellIDs ...string) string {
	t.Helper()
	dir := t.TempDir()
	start := time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)
	records := make([]domain.ClimateRecord, 730)
	for i := range records {
		day := start.AddDate(0, 0, i)
		phase := math.Cos(2 * math.Pi * float64(day.YearDay()-15) / 365)
		tmean := 10 - 15*phase
		records[i] = domain.ClimateRecord{
			Date:  day,
			Tmin:  tmean - 7,
			Tmax:  tmean + 7,
			Wind:  2,
			RHMin: 45,
			RefET: math.Max(0.5, 3-2.5*phase),
		}
	}
	for _, id := range cellIDs {
		f, err := os.Create(filepath.Join(dir, id+".csv"))
		require.NoError(t, err)
		require.NoError(t, climatecsv.Write(f, records))
		require.NoError(t, f.Close())
	}
	return dir
}
