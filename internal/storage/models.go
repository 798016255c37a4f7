package storage

import "time"

// Node represents a GitHub user in the follow graph
type Node struct {
	Login     string
	URL       string
	CreatedAt time.Time
}

// Edge represents a directed FOLLOWS relationship: Follower follows Followee
type Edge struct {
	Follower string
	Followee string
}

// Metrics tracks crawl statistics for export on exit
type Metrics struct {
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	ProfilesFetched   int       `json:"profiles_fetched"`
	NodesExpanded     int       `json:"nodes_expanded"`
	NodesSkipped      int       `json:"nodes_skipped"`
	NodesWritten      int       `json:"nodes_written"`
	EdgesWritten      int       `json:"edges_written"`
	TerminationReason string    `json:"termination_reason"`
}
