package redisstore

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/warp/lodging-engine/booking"
)

// DefaultChannel carries reservation events.
const DefaultChannel = keyPrefix + "events"

// EventMessage is the published payload.
type EventMessage struct {
	Kind         booking.EventKind  `json:"kind"`
	Reference    booking.Reference  `json:"reference"`
	RoomTypeID   booking.RoomTypeID `json:"room_type_id"`
	RoomTypeName string             `json:"room_type_name"`
	CheckIn      string             `json:"check_in"`
	CheckOut     string             `json:"check_out"`
	Rooms        int                `json:"rooms"`
	Status       booking.Status     `json:"status"`
	Total        string             `json:"total"`
	GuestEmail   string             `json:"guest_email"`
	At           time.Time          `json:"at"`
}

func NewEventMessage(e booking.Event) EventMessage {
	r := e.Reservation
	return EventMessage{
		Kind:         e.Kind,
		Reference:    r.Reference,
		RoomTypeID:   r.RoomTypeID,
		RoomTypeName: e.RoomTypeName,
		CheckIn:      r.Window.CheckIn.String(),
		CheckOut:     r.Window.CheckOut.String(),
		Rooms:        r.Rooms,
		Status:       r.Status,
		Total:        r.Pricing.Total.StringFixed(2),
		GuestEmail:   r.Guest.Email,
		At:           e.At,
	}
}

// Publisher is a booking.Notifier that publishes events for downstream
// consumers (mailers, channel managers).
type Publisher struct {
	rdb     redis.UniversalClient
	channel string
}

func NewPublisher(rdb redis.UniversalClient, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{rdb: rdb, channel: channel}
}

func (p *Publisher) Notify(ctx context.Context, e booking.Event) error {
	data, err := json.Marshal(NewEventMessage(e))
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, data).Err()
}
