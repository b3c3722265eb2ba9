package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables the service needs.  Statements are idempotent
// so EnsureSchema can run on every start; it is not a migration tool and
// never alters an existing table.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id         CHAR(36)     NOT NULL PRIMARY KEY,
		imdb_id    VARCHAR(32)  NOT NULL,
		created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_movies_imdb (imdb_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS rooms (
		id   CHAR(36)    NOT NULL PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		UNIQUE KEY uq_rooms_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS screens (
		id       CHAR(36)    NOT NULL PRIMARY KEY,
		movie_id CHAR(36)    NOT NULL,
		room_id  CHAR(36)    NOT NULL,
		date     DATE        NOT NULL,
		showtime VARCHAR(16) NOT NULL,
		is_full  TINYINT(1)  NOT NULL DEFAULT 0,
		KEY idx_screens_movie (movie_id),
		CONSTRAINT fk_screens_movie FOREIGN KEY (movie_id) REFERENCES movies (id),
		CONSTRAINT fk_screens_room FOREIGN KEY (room_id) REFERENCES rooms (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS seats (
		id         CHAR(36)   NOT NULL PRIMARY KEY,
		screen_id  CHAR(36)   NOT NULL,
		row_label  VARCHAR(4) NOT NULL,
		col_number INT        NOT NULL,
		user_id    VARCHAR(191) NULL,
		UNIQUE KEY uq_seats_position (screen_id, row_label, col_number),
		CONSTRAINT fk_seats_screen FOREIGN KEY (screen_id) REFERENCES screens (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tickets (
		id                 CHAR(36)     NOT NULL PRIMARY KEY,
		user_id            VARCHAR(191) NOT NULL,
		screen_id          CHAR(36)     NOT NULL,
		movie_id           CHAR(36)     NOT NULL,
		room_id            CHAR(36)     NOT NULL,
		date               DATE         NOT NULL,
		showtime           VARCHAR(16)  NOT NULL,
		bundle             ENUM('BASIC','PREMIUM','VIP') NULL,
		verified           TINYINT(1)   NOT NULL DEFAULT 0,
		payment_session_id VARCHAR(255) NULL,
		created_at         DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_tickets_user (user_id),
		KEY idx_tickets_pending (verified, created_at),
		CONSTRAINT fk_tickets_screen FOREIGN KEY (screen_id) REFERENCES screens (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS ticket_seats (
		ticket_id CHAR(36) NOT NULL,
		seat_id   CHAR(36) NOT NULL,
		PRIMARY KEY (ticket_id, seat_id),
		CONSTRAINT fk_ticket_seats_ticket FOREIGN KEY (ticket_id) REFERENCES tickets (id) ON DELETE CASCADE,
		CONSTRAINT fk_ticket_seats_seat FOREIGN KEY (seat_id) REFERENCES seats (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS comments (
		id         CHAR(36)     NOT NULL PRIMARY KEY,
		user_id    VARCHAR(191) NOT NULL,
		username   VARCHAR(191) NOT NULL,
		content    TEXT         NOT NULL,
		rating     TINYINT      NOT NULL,
		created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates any missing table.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
