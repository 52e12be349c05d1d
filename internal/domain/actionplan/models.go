package actionplan

// Plan is the store manager's single action plan draft.
type Plan struct {
	StoreName       string `json:"storeName"`
	ManagerName     string `json:"managerName"`
	VisionBlock     string `json:"visionBlock"`
	VisionArea      string `json:"visionArea"`
	VisionShop      string `json:"visionShop"`
	CurrentAnalysis string `json:"currentAnalysis"`
	Issues          string `json:"issues"`
	Goal            string `json:"goal"`
	PlanQ1          string `json:"planQ1"`
	PlanQ2          string `json:"planQ2"`
	PlanQ3          string `json:"planQ3"`
	PlanQ4          string `json:"planQ4"`
	FinalResult1    string `json:"finalResult1"`
	FinalResult2    string `json:"finalResult2"`
	FinalResult3    string `json:"finalResult3"`
}
