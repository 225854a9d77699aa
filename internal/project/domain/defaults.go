package domain

const (
	DefaultProductName = "BrandERP"
	DefaultCompanyName = "Onoo"

	GreetingMessage = "أهلاً بك! أنا خبير التسويق الخاص بـ BrandERP. كيف يمكنني مساعدتك في وضع خطة تسويقية أو توليد أفكار محتوى اليوم؟"

	DefaultPostGoal       = "زيادة الوعي بالعلامة التجارية"
	DefaultPostRatio      = "1:1"
	DefaultAdRatio        = "16:9"
	defaultDescription    = "نظام تخطيط موارد المؤسسات (ERP) سحابي متكامل يساعد الشركات على إدارة المبيعات والمخزون والمحاسبة والموارد البشرية من منصة واحدة."
	defaultTargetAudience = "المدراء التنفيذيون وأصحاب الشركات الصغيرة والمتوسطة"
	defaultUSP            = "سهولة الاستخدام مع تقارير لحظية تدعم اتخاذ القرار"
)

// PostGoals are the goals offered by the post generator.
var PostGoals = []string{
	"زيادة الوعي بالعلامة التجارية",
	"الإعلان عن ميزة جديدة",
	"جذب عملاء محتملين",
	"مشاركة دراسة حالة",
}

// Greeting is the first chat message of every project.
func Greeting() ChatMessage {
	return ChatMessage{Role: RoleModel, Content: GreetingMessage}
}

// Defaults returns a fresh default project.
func Defaults() ProjectState {
	return ProjectState{
		ActiveTab: TabProductProfile,
		ProductInfo: ProductInfo{
			Name:           DefaultProductName,
			Company:        DefaultCompanyName,
			Description:    defaultDescription,
			TargetAudience: defaultTargetAudience,
			USP:            defaultUSP,
		},
		ChatHistory: []ChatMessage{Greeting()},
		PostGenerator: PostGeneratorState{
			PostGoal:    DefaultPostGoal,
			AspectRatio: DefaultPostRatio,
		},
		AdCreative: AdCreativeState{
			AspectRatio: DefaultAdRatio,
		},
		VoiceConsultant: VoiceConsultantState{History: []VoiceTurn{}},
	}
}
