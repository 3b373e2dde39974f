package api

// ResearchRequest is the body of POST /api/research
type ResearchRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// ResearchResult is the synthesized answer returned by the backend
type ResearchResult struct {
	Success        bool     `json:"success"`
	Answer         string   `json:"answer"`
	SessionID      string   `json:"session_id"`
	ToolsUsed      []string `json:"tools_used"`
	ProcessingTime float64  `json:"processing_time"` // seconds
	Timestamp      string   `json:"timestamp"`
	TokenEstimate  *int     `json:"token_estimate,omitempty"`
}

// HealthStatus is the payload of GET /api/health
type HealthStatus struct {
	Status     string `json:"status"`
	AgentReady bool   `json:"agent_ready"`
	Version    string `json:"version,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// LogEntry is a single parsed line of the backend log file
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// LogsResponse is the payload of GET /api/logs
type LogsResponse struct {
	Logs           []LogEntry `json:"logs"`
	TotalLines     int        `json:"total_lines"`
	RequestedLines int        `json:"requested_lines,omitempty"`
	ReturnedLines  int        `json:"returned_lines,omitempty"`
}

// RecentQuery is one row of the backend's recent query list
type RecentQuery struct {
	Query          string   `json:"query"`
	ToolsUsed      []string `json:"tools_used"`
	ProcessingTime float64  `json:"processing_time"`
	Timestamp      string   `json:"timestamp"`
	SessionID      string   `json:"session_id"`
}

// AnalyticsSnapshot is the payload of GET /api/analytics
type AnalyticsSnapshot struct {
	TotalQueries          int            `json:"total_queries"`
	ToolsUsage            map[string]int `json:"tools_usage"`
	AverageProcessingTime float64        `json:"average_processing_time"`
	RecentQueries         []RecentQuery  `json:"recent_queries"`
	LogFileSize           int64          `json:"log_file_size"`
	Uptime                string         `json:"uptime"`
}

// ClearLogsResult is the payload of DELETE /api/clear-logs
type ClearLogsResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	BackupFile string `json:"backup_file,omitempty"`
}

// LogDownload is the raw log file served by GET /api/download-logs
type LogDownload struct {
	Filename string
	Body     []byte
}

// errorBody is the JSON error shape used by the backend
type errorBody struct {
	Detail string `json:"detail"`
}
