package domain

// ClaimFiles holds the per-source claims CSV paths
type ClaimFiles struct {
	MatterEntertainment string `json:"matter_entertainment,omitempty" dynamodbav:"matter_entertainment,omitempty"`
	Matter2             string `json:"matter_2,omitempty" dynamodbav:"matter_2,omitempty"`
}

// InputFiles is the snapshot of input file references for a run. An empty
// string means the file was not uploaded. The snapshot is persisted on the run
// so a retry re-derives the same set of applicable steps.
type InputFiles struct {
	Claims      ClaimFiles `json:"claims" dynamodbav:"claims"`
	MCNVerdicts string     `json:"mcn_verdicts,omitempty" dynamodbav:"mcn_verdicts,omitempty"`
	JFMVerdicts string     `json:"jfm_verdicts,omitempty" dynamodbav:"jfm_verdicts,omitempty"`
}

// IsEmpty reports whether no input file was provided at all
func (f InputFiles) IsEmpty() bool {
	return f.Claims.MatterEntertainment == "" && f.Claims.Matter2 == "" &&
		f.MCNVerdicts == "" && f.JFMVerdicts == ""
}

// UploadedLabels returns human-readable names of the provided files, in a
// fixed order, for notifications
func (f InputFiles) UploadedLabels() []string {
	labels := []string{}
	if f.Claims.MatterEntertainment != "" {
		labels = append(labels, "Claims (ME)")
	}
	if f.Claims.Matter2 != "" {
		labels = append(labels, "Claims (M2)")
	}
	if f.MCNVerdicts != "" {
		labels = append(labels, "MCN Verdicts")
	}
	if f.JFMVerdicts != "" {
		labels = append(labels, "JFM Verdicts")
	}
	return labels
}
