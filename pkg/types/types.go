// Package domain defines the core business types for snkr-price-watch.
package domain

import "time"

// NotificationKind identifies which rule triggered a notification.
type NotificationKind string

// Notification kind constants.
const (
	KindBelow  NotificationKind = "below"
	KindAbove  NotificationKind = "above"
	KindChange NotificationKind = "change"
)

// Channel name constants, recorded in notification history.
const (
	ChannelLine     = "line"
	ChannelDiscord  = "discord"
	ChannelChatwork = "chatwork"
)

// Product is a tracked marketplace listing. A product owns its sizes;
// deleting a product cascades to sizes, price history, and notification
// history. Deactivating stops monitoring without losing history.
type Product struct {
	ID            string     `json:"id"                     db:"id"`
	URL           string     `json:"url"                    db:"url"`
	Name          string     `json:"name"                   db:"name"`
	ImageURL      string     `json:"image_url,omitempty"    db:"image_url"`
	Active        bool       `json:"is_active"              db:"is_active"`
	AddedAt       time.Time  `json:"added_at"               db:"added_at"`
	LastCheckedAt *time.Time `json:"last_checked,omitempty" db:"last_checked"`

	// Sizes is populated on detail reads; list queries leave it nil.
	Sizes []Size `json:"sizes,omitempty" db:"-"`
}

// NotifyRules holds the three independent per-size notification rules.
// A nil threshold means the rule is disabled.
type NotifyRules struct {
	Below       *int `json:"notify_below"         db:"notify_below"`
	Above       *int `json:"notify_above"         db:"notify_above"`
	OnAnyChange bool `json:"notify_on_any_change" db:"notify_on_any_change"`
}

// Size is a purchasable variant of a product with its own price state and
// notification rules. (product_id, size) is unique. Price fields are whole
// yen; lowest/highest are nil until the first observation seeds them.
type Size struct {
	ID            string `json:"id"             db:"id"`
	ProductID     string `json:"product_id"     db:"product_id"`
	Label         string `json:"size"           db:"size"`
	CurrentPrice  int    `json:"current_price"  db:"current_price"`
	PreviousPrice int    `json:"previous_price" db:"previous_price"`
	LowestPrice   *int   `json:"lowest_price"   db:"lowest_price"`
	HighestPrice  *int   `json:"highest_price"  db:"highest_price"`

	NotifyRules

	LastUpdatedAt *time.Time `json:"last_updated,omitempty" db:"last_updated"`
}

// PriceHistoryEntry is an immutable record of an observed price.
type PriceHistoryEntry struct {
	ID        string    `json:"id"        db:"id"`
	SizeID    string    `json:"size_id"   db:"size_id"`
	Price     int       `json:"price"     db:"price"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// NotificationEvent records one successfully delivered notification.
// A dispatch that reaches three channels produces three events.
type NotificationEvent struct {
	ID        string           `json:"id"                db:"id"`
	ProductID string           `json:"product_id"        db:"product_id"`
	SizeID    string           `json:"size_id"           db:"size_id"`
	OldPrice  int              `json:"old_price"         db:"old_price"`
	NewPrice  int              `json:"new_price"         db:"new_price"`
	Kind      NotificationKind `json:"notification_type" db:"notification_type"`
	Channel   string           `json:"sent_to"           db:"sent_to"`
	Timestamp time.Time        `json:"timestamp"         db:"timestamp"`
}

// ChannelSettings holds per-channel enablement and credentials. The engine
// reads these each cycle; the settings API mutates them.
type ChannelSettings struct {
	LineEnabled bool   `json:"line_enabled" db:"line_enabled"`
	LineToken   string `json:"line_token"   db:"line_token"`
	LineUserID  string `json:"line_user_id" db:"line_user_id"`

	DiscordEnabled bool   `json:"discord_enabled" db:"discord_enabled"`
	DiscordWebhook string `json:"discord_webhook" db:"discord_webhook"`

	ChatworkEnabled bool   `json:"chatwork_enabled" db:"chatwork_enabled"`
	ChatworkToken   string `json:"chatwork_token"   db:"chatwork_token"`
	ChatworkRoomID  string `json:"chatwork_room_id" db:"chatwork_room_id"`
}

// AnyEnabled reports whether at least one channel is switched on.
func (c *ChannelSettings) AnyEnabled() bool {
	return c.LineEnabled || c.DiscordEnabled || c.ChatworkEnabled
}

// ScraperSettings holds the marketplace account credentials and the polling
// cadence, stored as a single row and edited through the settings API.
type ScraperSettings struct {
	Username        string `json:"username"            db:"username"`
	Password        string `json:"password"            db:"password"`
	IntervalSeconds int    `json:"monitoring_interval" db:"monitoring_interval"`
}

// HasCredentials reports whether both username and password are set.
func (s *ScraperSettings) HasCredentials() bool {
	return s.Username != "" && s.Password != ""
}
