package lesson

// Starter is a one-click example request shown on the chat landing page.
type Starter struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

// Profile describes one generation mode exposed to the frontend.
type Profile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon,omitempty"`
	Starters    []Starter `json:"starters,omitempty"`
}

// Store exposes profile retrieval for HTTP handlers.
type Store interface {
	List() []Profile
	FindByID(id string) (Profile, bool)
}

// MemoryStore implements Store with an in-memory slice, suitable for MVP.
type MemoryStore struct {
	items []Profile
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied profiles.
func NewMemoryStore(items []Profile) *MemoryStore {
	return &MemoryStore{items: append([]Profile(nil), items...)}
}

// List returns the predefined profile list.
func (s *MemoryStore) List() []Profile {
	return append([]Profile(nil), s.items...)
}

// FindByID looks up a profile by identifier.
func (s *MemoryStore) FindByID(id string) (Profile, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Profile{}, false
}

// Profile identifiers. OpenTopicProfileID drives free-form lesson
// generation; CatchUpProfileID drives the file-upload personalized path.
const (
	OpenTopicProfileID = "open-topic"
	CatchUpProfileID   = "catch-up"
)

// Seed provides the default generation profiles.
func Seed() []Profile {
	return []Profile{
		{
			ID:          OpenTopicProfileID,
			Name:        "开放主题课程生成",
			Description: "生成中国小学语文教学内容，包括诗词鉴赏、阅读理解和互动练习。",
			Icon:        "public/icons/deep_research.png",
			Starters: []Starter{
				{
					Label:   "李白《静夜思》教学",
					Message: "请为小学三年级学生创建一节关于李白《静夜思》的课程。包括诗词背景介绍、重点字词解释、诗句赏析、朗读指导、互动活动和学习检测题目。",
				},
				{
					Label:   "杜甫《春夜喜雨》教学",
					Message: "为小学四年级学生设计一节杜甫《春夜喜雨》的教学课件，包含诗人简介、诗词解析、情景想象活动、诗词朗诵技巧、课堂互动环节和课后习题。",
				},
				{
					Label:   "成语故事《守株待兔》教学",
					Message: "为小学二年级学生创建一节关于成语故事《守株待兔》的教学内容，包括故事原文、生字词解释、故事寓意分析、角色扮演活动、课堂提问和课后练习。",
				},
			},
		},
		{
			ID:          CatchUpProfileID,
			Name:        "查缺补漏与兴趣拓展",
			Description: "上传学生学习记录，生成针对知识缺口和兴趣点的个性化教案。",
		},
	}
}
