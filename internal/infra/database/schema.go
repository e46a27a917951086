package database

// Schema is the authoritative table layout. It uses only types and syntax
// understood by both PostgreSQL and SQLite.
const Schema = `
CREATE TABLE IF NOT EXISTS teams (
    team_id              TEXT PRIMARY KEY,
    chat_id              BIGINT NOT NULL,
    title                TEXT NOT NULL DEFAULT '',
    champion_telegram_id BIGINT NOT NULL DEFAULT 0,
    created_at           TIMESTAMP NOT NULL,
    updated_at           TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS awards (
    team_id            TEXT NOT NULL,
    award_id           TEXT NOT NULL,
    name               TEXT NOT NULL,
    description        TEXT NOT NULL DEFAULT '',
    created_by_user_id BIGINT NOT NULL DEFAULT 0,
    created_at         TIMESTAMP NOT NULL,
    PRIMARY KEY (team_id, award_id),
    CONSTRAINT awards_team_name_unique UNIQUE (team_id, name)
);

CREATE TABLE IF NOT EXISTS reward_cycles (
    team_id               TEXT NOT NULL,
    cycle_id              TEXT NOT NULL,
    start_date            TIMESTAMP NOT NULL,
    end_date              TIMESTAMP NOT NULL,
    recurrence            TEXT NOT NULL,
    occurrences_remaining INTEGER NOT NULL DEFAULT 0,
    range_end_date        TIMESTAMP NULL,
    state                 TEXT NOT NULL,
    result_published      TEXT NOT NULL,
    result_published_on   TIMESTAMP NULL,
    created_by_user_id    BIGINT NOT NULL DEFAULT 0,
    created_on            TIMESTAMP NOT NULL,
    updated_at            TIMESTAMP NOT NULL,
    PRIMARY KEY (team_id, cycle_id)
);

CREATE INDEX IF NOT EXISTS reward_cycles_team_updated_idx ON reward_cycles (team_id, updated_at);

CREATE TABLE IF NOT EXISTS nominations (
    team_id            TEXT NOT NULL,
    nomination_id      TEXT NOT NULL,
    cycle_id           TEXT NOT NULL,
    award_id           TEXT NOT NULL,
    award_name         TEXT NOT NULL,
    nominee_id         BIGINT NOT NULL,
    nominee_name       TEXT NOT NULL DEFAULT '',
    nominated_by_id    BIGINT NOT NULL,
    nominated_by_name  TEXT NOT NULL DEFAULT '',
    reason             TEXT NOT NULL DEFAULT '',
    nominated_on       TIMESTAMP NOT NULL,
    award_granted      BOOLEAN NOT NULL DEFAULT FALSE,
    award_published_on TIMESTAMP NULL,
    PRIMARY KEY (team_id, nomination_id),
    CONSTRAINT nominations_once_per_cycle UNIQUE (team_id, cycle_id, award_id, nominated_by_id, nominee_id)
);

CREATE TABLE IF NOT EXISTS endorsements (
    team_id        TEXT NOT NULL,
    cycle_id       TEXT NOT NULL,
    award_id       TEXT NOT NULL,
    nominee_id     BIGINT NOT NULL,
    endorsed_by_id BIGINT NOT NULL,
    endorsed_on    TIMESTAMP NOT NULL,
    PRIMARY KEY (team_id, cycle_id, award_id, nominee_id, endorsed_by_id)
);
`
