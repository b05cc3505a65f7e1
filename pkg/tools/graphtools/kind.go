package graphtools

// Kind enumerates the graph tools. The set is closed: Dispatch switches over
// every Kind and nothing else can be called.
type Kind int

const (
	KindGetPages Kind = iota
	KindGetLabels
	KindGetEdges
	KindGetUiStates
	KindSavePage
	KindSaveLabel
	KindSaveEdge
	KindSaveUiState

	kindCount
)

var kindNames = [kindCount]string{
	KindGetPages:    "get_pages",
	KindGetLabels:   "get_labels",
	KindGetEdges:    "get_edges",
	KindGetUiStates: "get_ui_states",
	KindSavePage:    "save_page",
	KindSaveLabel:   "save_label",
	KindSaveEdge:    "save_edge",
	KindSaveUiState: "save_ui_state",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// IsReference reports whether the tool only reads the graph.
func (k Kind) IsReference() bool {
	return k >= KindGetPages && k <= KindGetUiStates
}

// ParseKind resolves a tool name.
func ParseKind(name string) (Kind, bool) {
	for k := Kind(0); k < kindCount; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}
	return 0, false
}

// AllKinds returns every kind, reference tier first.
func AllKinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}
