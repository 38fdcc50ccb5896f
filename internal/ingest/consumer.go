package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/weatherlog/weatherlog/internal/weather"
)

// SampleSaver persists validated samples with near-duplicate suppression.
type SampleSaver interface {
	SaveSample(ctx context.Context, s weather.Sample) (bool, error)
}

// Consumer drains externally collected samples from a durable queue and
// writes them through the sample saver. Poison messages are dropped;
// messages failing on store availability are requeued.
type Consumer struct {
	queueName  string
	saver      SampleSaver
	connection *amqp.Connection
	channel    *amqp.Channel
}

// New dials the broker and declares the durable sample queue.
func New(amqpURL, queueName string, saver SampleSaver) (*Consumer, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring queue %s: %w", queueName, err)
	}

	return &Consumer{
		queueName:  queueName,
		saver:      saver,
		connection: conn,
		channel:    ch,
	}, nil
}

// Start consumes until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("registering consumer: %w", err)
	}

	log.Printf("ingest: consuming samples from queue %s", c.queueName)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				c.process(ctx, d)
			}
		}
	}()
	return nil
}

// Close tears down the channel and connection.
func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.connection != nil {
		c.connection.Close()
	}
}

func (c *Consumer) process(ctx context.Context, d amqp.Delivery) {
	var msg sampleMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Printf("ingest: dropping undecodable message: %v", err)
		d.Nack(false, false)
		return
	}

	sample, err := msg.toSample()
	if err != nil {
		log.Printf("ingest: dropping invalid sample: %v", err)
		d.Nack(false, false)
		return
	}

	stored, err := c.saver.SaveSample(ctx, sample)
	if err != nil {
		if errors.Is(err, weather.ErrStoreUnavailable) {
			log.Printf("ingest: store unavailable, requeueing sample: %v", err)
			d.Nack(false, true)
			return
		}
		log.Printf("ingest: dropping unsaveable sample: %v", err)
		d.Nack(false, false)
		return
	}

	if !stored {
		log.Printf("ingest: suppressed near-duplicate sample at %s", sample.Timestamp.Format(time.RFC3339))
	}
	d.Ack(false)
}

// sampleMessage is the collector's wire format.
type sampleMessage struct {
	Timestamp string `json:"timestamp"`
	Location  struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	Current struct {
		Temperature   float64 `json:"temperature"`
		Humidity      float64 `json:"humidity"`
		WindSpeed     float64 `json:"windSpeed"`
		WeatherCode   int     `json:"weatherCode"`
		Condition     string  `json:"condition"`
		Precipitation float64 `json:"precipitation"`
	} `json:"current"`
	Forecast *struct {
		Time                     []string  `json:"time"`
		Temperature              []float64 `json:"temperature"`
		Humidity                 []float64 `json:"humidity"`
		WindSpeed                []float64 `json:"windSpeed"`
		WeatherCode              []int     `json:"weatherCode"`
		PrecipitationProbability []int     `json:"precipitationProbability"`
	} `json:"forecast,omitempty"`
}

func (m *sampleMessage) toSample() (weather.Sample, error) {
	ts, err := parseTimestamp(m.Timestamp)
	if err != nil {
		return weather.Sample{}, fmt.Errorf("timestamp %q: %w", m.Timestamp, err)
	}

	loc := weather.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
	if !loc.Valid() {
		return weather.Sample{}, fmt.Errorf("%w: %.4f,%.4f", weather.ErrInvalidCoordinates, loc.Latitude, loc.Longitude)
	}
	if m.Current.Temperature < -100 || m.Current.Temperature > 100 {
		return weather.Sample{}, fmt.Errorf("temperature %.1f out of range", m.Current.Temperature)
	}
	if m.Current.Humidity < 0 || m.Current.Humidity > 100 {
		return weather.Sample{}, fmt.Errorf("humidity %.1f out of range", m.Current.Humidity)
	}
	if m.Current.WindSpeed < 0 {
		return weather.Sample{}, fmt.Errorf("negative wind speed %.1f", m.Current.WindSpeed)
	}

	condition := weather.Condition(m.Current.Condition)
	if condition == "" {
		condition = weather.ConditionForCode(m.Current.WeatherCode)
	}

	sample := weather.Sample{
		Timestamp: ts,
		Location:  loc,
		Current: weather.CurrentConditions{
			Temperature:   m.Current.Temperature,
			Humidity:      m.Current.Humidity,
			WindSpeed:     m.Current.WindSpeed,
			WeatherCode:   m.Current.WeatherCode,
			Condition:     condition,
			Precipitation: m.Current.Precipitation,
		},
	}

	if f := m.Forecast; f != nil && len(f.Time) > 0 {
		times := make([]time.Time, len(f.Time))
		for i, raw := range f.Time {
			t, err := parseTimestamp(raw)
			if err != nil {
				return weather.Sample{}, fmt.Errorf("forecast time %q: %w", raw, err)
			}
			times[i] = t
		}
		sample.Hourly = &weather.HourlyForecast{
			Time:                     times,
			Temperature:              f.Temperature,
			Humidity:                 f.Humidity,
			WindSpeed:                f.WindSpeed,
			WeatherCode:              f.WeatherCode,
			PrecipitationProbability: f.PrecipitationProbability,
		}
	}

	return sample, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unrecognized time format")
}
