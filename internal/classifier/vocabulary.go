package classifier

// Category names exposed to clients and stored on articles.
const (
	CategoryFood           = "Food"
	CategoryDrugs          = "Drugs"
	CategoryMedicalDevices = "Medical Devices"
	CategoryCosmetics      = "Cosmetics"
)

// CategoryRule binds a category to the keywords that evidence it.
type CategoryRule struct {
	Category string
	Keywords []string
}

// DefaultVocabulary is the bilingual keyword set for FDA and GACC listings.
// English keywords match at a word start; keywords of three letters or less match whole words only.
var DefaultVocabulary = []CategoryRule{
	{
		Category: CategoryFood,
		Keywords: []string{
			"food", "seafood", "infant formula", "dietary supplement", "beverage",
			"meat", "poultry", "dairy", "salmonella", "listeria", "allergen", "produce safety",
			"食品", "食用", "肉类", "乳制品", "乳品", "水产品", "农产品", "粮食", "饮料", "保健食品",
		},
	},
	{
		Category: CategoryDrugs,
		Keywords: []string{
			"drug", "pharmac", "medicine", "medication", "prescription", "opioid",
			"vaccine", "biologic", "antibiotic",
			"药品", "药物", "疫苗", "医药", "原料药",
		},
	},
	{
		Category: CategoryMedicalDevices,
		Keywords: []string{
			"medical device", "device", "diagnostic", "implant", "glucose monitor",
			"ventilator", "surgical", "in vitro",
			"医疗器械", "医疗设备", "诊断试剂",
		},
	},
	{
		Category: CategoryCosmetics,
		Keywords: []string{
			"cosmetic", "makeup", "sunscreen", "skincare", "skin care", "personal care",
			"tattoo", "hair dye",
			"化妆品", "美容", "护肤",
		},
	},
}

// DefaultSignals are enforcement terms that lift a categorised item to high relevance.
var DefaultSignals = []string{
	"recall", "warning letter", "import alert", "ban", "bans", "banned", "banning", "detention", "detain",
	"seize", "seizure", "suspend", "outbreak", "contaminat", "adulterat", "injunction",
	"召回", "禁止", "暂停", "警示", "通报", "扣留", "退运", "销毁", "风险预警",
}
