package domain

// Progress is a snapshot of a merge run.
type Progress struct {
	FilesTotal int    `json:"files_total"`
	FilesDone  int    `json:"files_done"`
	Rows       int    `json:"rows"`
	Current    string `json:"current,omitempty"`
	Finished   bool   `json:"finished"`
	Error      string `json:"error,omitempty"`
}
