package postgres

const schemaSQL = `
CREATE TABLE IF NOT EXISTS monitors (
  id             TEXT PRIMARY KEY,
  name           TEXT NOT NULL DEFAULT '',
  type           TEXT NOT NULL,
  is_active      BOOLEAN NOT NULL DEFAULT TRUE,
  interval_ms    BIGINT NOT NULL,
  secret         TEXT NOT NULL DEFAULT '',
  status         TEXT NOT NULL DEFAULT '',
  status_window  BOOLEAN[] NOT NULL DEFAULT '{}',
  spec           JSONB NOT NULL DEFAULT '{}',
  backoff        JSONB NOT NULL DEFAULT '{}',
  alert_counters JSONB NOT NULL DEFAULT '{}',
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS checks (
  id               TEXT PRIMARY KEY,
  monitor_id       TEXT NOT NULL,
  type             TEXT NOT NULL,
  status           BOOLEAN NOT NULL,
  status_code      INTEGER NOT NULL,
  response_time_ms DOUBLE PRECISION NOT NULL,
  message          TEXT NOT NULL,
  timings          JSONB NOT NULL DEFAULT '{}',
  created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checks_monitor_time ON checks (monitor_id, created_at DESC);

CREATE TABLE IF NOT EXISTS pagespeed_checks (
  LIKE checks INCLUDING DEFAULTS INCLUDING CONSTRAINTS,
  accessibility  DOUBLE PRECISION NOT NULL,
  best_practices DOUBLE PRECISION NOT NULL,
  seo            DOUBLE PRECISION NOT NULL,
  performance    DOUBLE PRECISION NOT NULL,
  audits         JSONB NOT NULL DEFAULT '{}',
  PRIMARY KEY (id)
);
CREATE INDEX IF NOT EXISTS idx_pagespeed_monitor_time ON pagespeed_checks (monitor_id, created_at DESC);

CREATE TABLE IF NOT EXISTS hardware_checks (
  LIKE checks INCLUDING DEFAULTS INCLUDING CONSTRAINTS,
  cpu    JSONB NOT NULL DEFAULT '{}',
  memory JSONB NOT NULL DEFAULT '{}',
  disk   JSONB NULL,
  host   JSONB NOT NULL DEFAULT '{}',
  errors JSONB NULL,
  PRIMARY KEY (id)
);
CREATE INDEX IF NOT EXISTS idx_hardware_monitor_time ON hardware_checks (monitor_id, created_at DESC);

CREATE TABLE IF NOT EXISTS monitor_stats (
  monitor_id            TEXT PRIMARY KEY REFERENCES monitors(id) ON DELETE CASCADE,
  avg_response_time_ms  DOUBLE PRECISION NOT NULL DEFAULT 0,
  total_checks          BIGINT NOT NULL DEFAULT 0,
  total_up_checks       BIGINT NOT NULL DEFAULT 0,
  total_down_checks     BIGINT NOT NULL DEFAULT 0,
  uptime_percentage     DOUBLE PRECISION NOT NULL DEFAULT 0,
  last_check_at         TIMESTAMPTZ NULL,
  last_response_time_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
  time_of_last_failure  TIMESTAMPTZ NULL
);
`
