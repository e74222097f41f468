package api

import (
	"time"

	"github.com/quotegrep/quotegrep/pkg/quotes"
	"github.com/quotegrep/quotegrep/pkg/store"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type GamesResponse struct {
	Games []string `json:"games"`
	Count int      `json:"count"`
}

type RandomResponse struct {
	Data []quotes.VideoGroup `json:"data"`
}

type StatsResponse struct {
	Channels    []store.ChannelStats `json:"channels"`
	TotalQuotes int                  `json:"totalQuotes"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type DBStatusResponse struct {
	Healthy      bool           `json:"healthy"`
	ResponseTime string         `json:"responseTime,omitempty"`
	ServerTime   string         `json:"serverTime,omitempty"`
	Pool         store.PoolInfo `json:"pool"`
	Error        string         `json:"error,omitempty"`
}

type FlagResponse struct {
	Success bool `json:"success"`
}

type AnalyticsResponse struct {
	ID string `json:"id"`
}
