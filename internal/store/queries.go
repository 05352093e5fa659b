package store

// SQL query constants organized by entity.
// All SQL lives here; PostgresStore methods reference these constants.

// Product queries.
const (
	queryCreateProduct = `
		INSERT INTO products (url, name, image_url, is_active, added_at)
		VALUES (@url, @name, @image_url, @is_active, now())
		RETURNING id, added_at`

	queryGetProduct = `
		SELECT id, url, name, image_url, is_active, added_at, last_checked
		FROM products
		WHERE id = $1`

	queryGetProductByURL = `
		SELECT id, url, name, image_url, is_active, added_at, last_checked
		FROM products
		WHERE url = $1`

	queryListProductsAll = `
		SELECT id, url, name, image_url, is_active, added_at, last_checked
		FROM products
		ORDER BY added_at DESC`

	queryListProductsActive = `
		SELECT id, url, name, image_url, is_active, added_at, last_checked
		FROM products
		WHERE is_active = TRUE
		ORDER BY added_at DESC`

	queryUpdateProduct = `
		UPDATE products SET
			name = $2,
			image_url = $3,
			is_active = $4
		WHERE id = $1`

	querySetProductActive = `
		UPDATE products SET is_active = $2 WHERE id = $1`

	queryDeleteProduct = `
		DELETE FROM products WHERE id = $1`

	queryTouchProductChecked = `
		UPDATE products SET last_checked = $2 WHERE id = $1`
)

// Size queries.
const (
	queryCreateSize = `
		INSERT INTO sizes (
			product_id, size, current_price, previous_price,
			lowest_price, highest_price, last_updated
		) VALUES (
			@product_id, @size, @current_price, @previous_price,
			@lowest_price, @highest_price, @last_updated
		)
		RETURNING id`

	queryListSizes = `
		SELECT id, product_id, size, current_price, previous_price,
			lowest_price, highest_price,
			notify_below, notify_above, notify_on_any_change, last_updated
		FROM sizes
		WHERE product_id = $1
		ORDER BY size`

	queryGetSize = `
		SELECT id, product_id, size, current_price, previous_price,
			lowest_price, highest_price,
			notify_below, notify_above, notify_on_any_change, last_updated
		FROM sizes
		WHERE id = $1`

	queryUpdateSizeRules = `
		UPDATE sizes SET
			notify_below = $2,
			notify_above = $3,
			notify_on_any_change = $4
		WHERE id = $1`

	queryLockSizePrice = `
		SELECT current_price FROM sizes WHERE id = $1 FOR UPDATE`

	queryShiftSizePrice = `
		UPDATE sizes SET
			previous_price = current_price,
			current_price = $2,
			lowest_price = LEAST(COALESCE(lowest_price, $2), $2),
			highest_price = GREATEST(COALESCE(highest_price, $2), $2),
			last_updated = $3
		WHERE id = $1
		RETURNING id, product_id, size, current_price, previous_price,
			lowest_price, highest_price,
			notify_below, notify_above, notify_on_any_change, last_updated`
)

// Price history queries.
const (
	queryInsertPriceHistory = `
		INSERT INTO price_history (size_id, price, timestamp)
		VALUES ($1, $2, $3)`

	queryListPriceHistory = `
		SELECT id, size_id, price, timestamp
		FROM price_history
		WHERE size_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	queryListProductPriceHistory = `
		SELECT h.id, h.size_id, h.price, h.timestamp
		FROM price_history h
		JOIN sizes s ON s.id = h.size_id
		WHERE s.product_id = $1
		ORDER BY h.timestamp DESC
		LIMIT $2`

	queryPrunePriceHistory = `
		DELETE FROM price_history WHERE timestamp < $1`
)

// Notification history queries.
const (
	queryInsertNotificationEvent = `
		INSERT INTO notification_history (
			product_id, size_id, old_price, new_price,
			notification_type, sent_to, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	queryListNotificationEvents = `
		SELECT id, product_id, size_id, old_price, new_price,
			notification_type, sent_to, timestamp
		FROM notification_history
		ORDER BY timestamp DESC
		LIMIT $1`
)

// Settings queries. Both settings tables hold a single row with id = 1.
const (
	queryGetScraperSettings = `
		SELECT username, password, monitoring_interval
		FROM scraper_settings
		WHERE id = 1`

	querySaveScraperSettings = `
		INSERT INTO scraper_settings (id, username, password, monitoring_interval)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			password = EXCLUDED.password,
			monitoring_interval = EXCLUDED.monitoring_interval`

	queryGetChannelSettings = `
		SELECT line_enabled, line_token, line_user_id,
			discord_enabled, discord_webhook,
			chatwork_enabled, chatwork_token, chatwork_room_id
		FROM channel_settings
		WHERE id = 1`

	querySaveChannelSettings = `
		INSERT INTO channel_settings (
			id, line_enabled, line_token, line_user_id,
			discord_enabled, discord_webhook,
			chatwork_enabled, chatwork_token, chatwork_room_id
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			line_enabled = EXCLUDED.line_enabled,
			line_token = EXCLUDED.line_token,
			line_user_id = EXCLUDED.line_user_id,
			discord_enabled = EXCLUDED.discord_enabled,
			discord_webhook = EXCLUDED.discord_webhook,
			chatwork_enabled = EXCLUDED.chatwork_enabled,
			chatwork_token = EXCLUDED.chatwork_token,
			chatwork_room_id = EXCLUDED.chatwork_room_id`
)
