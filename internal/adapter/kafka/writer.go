package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/OuyangWenyu/et-demands/internal/config"
	"github.com/OuyangWenyu/et-demands/internal/domain"
)

// Supported payload encodings.
const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

// Writer publishes one message per crop series to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer   *kafkago.Writer
	encoding string
	logger   *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, encoding: cfg.KafkaEncoding, logger: logger}
}

// LoadBatch publishes every series of a cell in a single WriteMessages call.
// Messages are keyed by cell and crop so a series always lands on the same
// partition.
func (w *Writer) LoadBatch(ctx context.Context, series []domain.CropSeries) error {
	if len(series) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(series))
	for i := range series {
		msg, err := serializeToMessage(series[i], w.encoding)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	w.logger.Debug("series published", "cell_id", series[0].CellID, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// MessageKey is the partition key of a crop series.
func MessageKey(cellID string, cropClass int) string {
	return cellID + "/" + strconv.Itoa(cropClass)
}

// serializeToMessage marshals a CropSeries into a Kafka message.
func serializeToMessage(s domain.CropSeries, encoding string) (kafkago.Message, error) {
	var (
		data []byte
		err  error
	)
	switch encoding {
	case EncodingMsgpack:
		data, err = msgpack.Marshal(s)
	case EncodingJSON, "":
		encoding = EncodingJSON
		data, err = json.Marshal(s)
	default:
		return kafkago.Message{}, fmt.Errorf("unsupported encoding %q", encoding)
	}
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize series %s: %w", MessageKey(s.CellID, s.CropClass), err)
	}
	return kafkago.Message{
		Key:   []byte(MessageKey(s.CellID, s.CropClass)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "cell_id", Value: []byte(s.CellID)},
			{Key: "crop_class", Value: []byte(strconv.Itoa(s.CropClass))},
			{Key: "computed_at", Value: []byte(s.ComputedAt.Format(time.RFC3339))},
			{Key: "content_type", Value: []byte(contentType(encoding))},
		},
	}, nil
}

func contentType(encoding string) string {
	if encoding == EncodingMsgpack {
		return "application/msgpack"
	}
	return "application/json"
}
