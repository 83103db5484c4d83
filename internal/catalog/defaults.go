package catalog

import "github.com/abdulnihaf/nawabi-chai-house/internal/domain"

// Material ids follow the ERP product catalog.
const (
	BuffaloMilk   = 1095
	SMP           = 1096
	Sugar         = 1097
	TeaPowder     = 1098
	FilterWater   = 1101
	Buns          = 1104
	OsmaniaLoose  = 1105
	CutletRaw     = 1106
	BottledWater  = 1107
	OsmaniaBox    = 1110
	CondensedMilk = 1112
	SamosaRaw     = 1113
	Oil           = 1114
	CheeseBallRaw = 1116
	Butter        = 1119
	CoffeePowder  = 1120
	Lemon         = 1121
	Honey         = 1123
)

const (
	IraniChai     = 1028
	BunMaska      = 1029
	OsmaniaSingle = 1030
	Cutlet        = 1031
	OsmaniaPack3  = 1033
	Water         = 1094
	Coffee        = 1102
	LemonTea      = 1103
	NilouferBox   = 1111
	Samosa        = 1115
	CheeseBalls   = 1117
	MalaiBun      = 1118
)

// Defaults returns the compiled reference catalog: the shop's material
// and product sets, mixture ratios, vessel tares, counting zones, and
// last-known unit costs.
func Defaults() *Catalog {
	return &Catalog{
		Materials: map[int]domain.Material{
			BuffaloMilk:   {ID: BuffaloMilk, Name: "Buffalo Milk", Unit: "L", FallbackCost: 80},
			SMP:           {ID: SMP, Name: "Skimmed Milk Powder", Unit: "kg", FallbackCost: 310},
			Sugar:         {ID: Sugar, Name: "Sugar", Unit: "kg", FallbackCost: 44},
			TeaPowder:     {ID: TeaPowder, Name: "Tea Powder", Unit: "kg", FallbackCost: 500},
			FilterWater:   {ID: FilterWater, Name: "Filter Water", Unit: "L", FallbackCost: 1.5},
			Buns:          {ID: Buns, Name: "Buns", Unit: "units", FallbackCost: 8},
			OsmaniaLoose:  {ID: OsmaniaLoose, Name: "Osmania Biscuit (Loose)", Unit: "units", FallbackCost: 6.65},
			CutletRaw:     {ID: CutletRaw, Name: "Chicken Cutlet (Unfried)", Unit: "units", FallbackCost: 15},
			BottledWater:  {ID: BottledWater, Name: "Bottled Water", Unit: "units", FallbackCost: 6.7},
			OsmaniaBox:    {ID: OsmaniaBox, Name: "Osmania Biscuit Box", Unit: "units", FallbackCost: 173},
			CondensedMilk: {ID: CondensedMilk, Name: "Condensed Milk", Unit: "kg", FallbackCost: 326},
			SamosaRaw:     {ID: SamosaRaw, Name: "Samosa Raw", Unit: "units", FallbackCost: 8},
			Oil:           {ID: Oil, Name: "Oil", Unit: "L", FallbackCost: 120},
			CheeseBallRaw: {ID: CheeseBallRaw, Name: "Cheese Balls Raw", Unit: "units", FallbackCost: 10},
			Butter:        {ID: Butter, Name: "Butter", Unit: "kg", FallbackCost: 500},
			CoffeePowder:  {ID: CoffeePowder, Name: "Coffee Powder", Unit: "kg", FallbackCost: 1200},
			Lemon:         {ID: Lemon, Name: "Lemon", Unit: "units", FallbackCost: 5},
			Honey:         {ID: Honey, Name: "Honey", Unit: "kg", FallbackCost: 400},
		},
		Products: map[int]Product{
			IraniChai: {Name: "Irani Chai", Code: "NCH-IC", Price: 20, Materials: map[int]float64{
				BuffaloMilk: 0.05742, SMP: 0.001435, CondensedMilk: 0.001148,
				TeaPowder: 0.000112, Sugar: 0.000225, FilterWater: 0.01966,
			}},
			Coffee: {Name: "Nawabi Special Coffee", Code: "NCH-NSC", Price: 30, Materials: map[int]float64{
				BuffaloMilk: 0.08613, SMP: 0.002153, CondensedMilk: 0.001723,
				CoffeePowder: 0.002, Honey: 0.005,
			}},
			LemonTea: {Name: "Lemon Tea", Code: "LT", Price: 20, Materials: map[int]float64{
				TeaPowder: 0.000449, Sugar: 0.000899, FilterWater: 0.07865, Lemon: 0.5,
			}},
			BunMaska: {Name: "Bun Maska", Code: "NCH-BM", Price: 40, Materials: map[int]float64{
				Buns: 1, Butter: 0.05, Sugar: 0.004,
			}},
			MalaiBun: {Name: "Malai Bun", Code: "NCH-MB", Price: 30, Materials: map[int]float64{
				Buns: 1,
			}},
			Cutlet: {Name: "Chicken Cutlet", Code: "NCH-CC", Price: 25, Materials: map[int]float64{
				CutletRaw: 1, Oil: 0.03,
			}},
			Samosa: {Name: "Pyaaz Samosa", Code: "NCH-PS", Price: 15, Materials: map[int]float64{
				SamosaRaw: 1, Oil: 0.02,
			}},
			CheeseBalls: {Name: "Cheese Balls", Code: "NCH-CB", Price: 50, Materials: map[int]float64{
				CheeseBallRaw: 1, Oil: 0.015,
			}},
			OsmaniaSingle: {Name: "Osmania Biscuit", Code: "NCH-OB", Price: 8, Materials: map[int]float64{
				OsmaniaLoose: 1,
			}},
			OsmaniaPack3: {Name: "Osmania Biscuit Pack of 3", Code: "NCH-OB3", Price: 20, Materials: map[int]float64{
				OsmaniaLoose: 3,
			}},
			NilouferBox: {Name: "Niloufer Osmania 500g", Code: "NCH-OBBOX", Price: 250, Materials: map[int]float64{
				OsmaniaBox: 1,
			}},
			Water: {Name: "Water", Code: "NCH-WTR", Price: 10, Materials: map[int]float64{
				BottledWater: 1,
			}},
		},
		Vessels: map[string]domain.Vessel{
			"KIT-PATILA-1": {Code: "KIT-PATILA-1", TareKg: 13.28, LiquidType: "boiled_milk", Location: "kitchen"},
			"CTR-MILK-1":   {Code: "CTR-MILK-1", TareKg: 10.0, LiquidType: "boiled_milk", Location: "counter"},
			"CTR-DEC-1":    {Code: "CTR-DEC-1", TareKg: 13.0, LiquidType: "tea_decoction", Location: "counter"},
			"CTR-DEC-2":    {Code: "CTR-DEC-2", TareKg: 11.0, LiquidType: "tea_decoction", Location: "counter"},
			"KIT-DEC-1":    {Code: "KIT-DEC-1", TareKg: 11.0, LiquidType: "tea_decoction", Location: "kitchen"},
		},
		Densities: map[string]float64{
			"boiled_milk":   1.035,
			"tea_decoction": 1.03,
			"oil":           0.92,
			"raw_milk":      1.032,
		},
		Rules: []Rule{
			{Field: "raw_buffalo_milk", Kind: RuleDirect, MaterialID: BuffaloMilk},
			{Field: "raw_milkmaid", Kind: RuleDirect, MaterialID: CondensedMilk},
			{Field: "raw_smp", Kind: RuleDirect, MaterialID: SMP},
			{Field: "raw_sugar", Kind: RuleDirect, MaterialID: Sugar},
			{Field: "raw_tea_powder", Kind: RuleDirect, MaterialID: TeaPowder},
			{Field: "coffee_powder", Kind: RuleDirect, MaterialID: CoffeePowder},
			{Field: "honey", Kind: RuleDirect, MaterialID: Honey},
			{Field: "lemons", Kind: RuleDirect, MaterialID: Lemon},
			{Field: "oil", Kind: RuleDirect, MaterialID: Oil},
			{Field: "water_bottles", Kind: RuleDirect, MaterialID: BottledWater},
			{Field: "plain_buns", Kind: RuleDirect, MaterialID: Buns},
			{Field: "raw_cutlets", Kind: RuleDirect, MaterialID: CutletRaw},
			{Field: "raw_samosa", Kind: RuleDirect, MaterialID: SamosaRaw},
			{Field: "raw_cheese_balls", Kind: RuleDirect, MaterialID: CheeseBallRaw},
			{Field: "osmania_loose", Kind: RuleDirect, MaterialID: OsmaniaLoose},

			// Butter is counted either as a direct kg figure or by weighing
			// the storage tins; a non-empty tin weighing wins.
			{Field: "butter", Kind: RuleDual, MaterialID: Butter, WeighField: "butter_tins"},

			// Boiled milk mixture: 10L buffalo milk + 0.25kg SMP + 0.2kg
			// condensed milk per ~10.45L batch, expressed per litre.
			{Field: "boiled_milk_kitchen", Kind: RuleVessel, LiquidType: "boiled_milk", Ratios: map[int]float64{
				BuffaloMilk: 0.957, SMP: 0.02392, CondensedMilk: 0.01914,
			}},
			{Field: "boiled_milk_counter", Kind: RuleVessel, LiquidType: "boiled_milk", Ratios: map[int]float64{
				BuffaloMilk: 0.957, SMP: 0.02392, CondensedMilk: 0.01914,
			}},
			// Tea decoction: 70L water + 0.4kg tea + 0.8kg sugar per
			// ~71.2L batch, expressed per litre.
			{Field: "tea_decoction", Kind: RuleVessel, LiquidType: "tea_decoction", Ratios: map[int]float64{
				TeaPowder: 0.005618, Sugar: 0.01124, FilterWater: 0.9831,
			}},

			// One box holds 400g tea and 800g sugar.
			{Field: "tea_sugar_boxes", Kind: RuleComposite, Ratios: map[int]float64{
				TeaPowder: 0.4, Sugar: 0.8,
			}},
			// 24 loose biscuits per packet.
			{Field: "osmania_packets", Kind: RuleComposite, Ratios: map[int]float64{
				OsmaniaLoose: 24,
			}},
			{Field: "niloufer_storage", Kind: RuleDirect, MaterialID: OsmaniaBox,
				Aliases: []string{"niloufer_display", "niloufer_boxes"}},

			{Field: "prepared_bun_maska", Kind: RulePrepared, Ratios: map[int]float64{
				Buns: 1, Butter: 0.05, Sugar: 0.004,
			}},
			{Field: "fried_cutlets", Kind: RulePrepared, Ratios: map[int]float64{
				CutletRaw: 1, Oil: 0.03,
			}},
			{Field: "fried_samosa", Kind: RulePrepared, Ratios: map[int]float64{
				SamosaRaw: 1, Oil: 0.02,
			}},
			{Field: "fried_cheese_balls", Kind: RulePrepared, Ratios: map[int]float64{
				CheeseBallRaw: 1, Oil: 0.015,
			}},
		},
		WastageRatios: map[string]map[int]float64{
			"cutlet/raw":            {CutletRaw: 1},
			"cutlet/fried":          {CutletRaw: 1, Oil: 0.03},
			"samosa/raw":            {SamosaRaw: 1},
			"samosa/fried":          {SamosaRaw: 1, Oil: 0.02},
			"cheese_balls/raw":      {CheeseBallRaw: 1},
			"cheese_balls/fried":    {CheeseBallRaw: 1, Oil: 0.015},
			"bun/plain":             {Buns: 1},
			"bun_maska/prepared":    {Buns: 1, Butter: 0.05, Sugar: 0.004},
			"boiled_milk/litre":     {BuffaloMilk: 0.957, SMP: 0.02392, CondensedMilk: 0.01914},
			"tea_decoction/litre":   {TeaPowder: 0.005618, Sugar: 0.01124, FilterWater: 0.9831},
			"osmania/loose":         {OsmaniaLoose: 1},
			"irani_chai/cup":        {BuffaloMilk: 0.05742, SMP: 0.001435, CondensedMilk: 0.001148, TeaPowder: 0.000112, Sugar: 0.000225, FilterWater: 0.01966},
		},
		Zones: map[string]Zone{
			"counter": {ThresholdSeconds: 600},
			"kitchen": {ThresholdSeconds: 1800},
			"storage": {ThresholdSeconds: 3600},
		},
		FieldZones: map[string]string{
			"boiled_milk_counter": "counter",
			"tea_decoction":       "counter",
			"fried_cutlets":       "counter",
			"fried_samosa":        "counter",
			"fried_cheese_balls":  "counter",
			"prepared_bun_maska":  "counter",
			"niloufer_display":    "counter",
			"water_bottles":       "counter",
			"boiled_milk_kitchen": "kitchen",
			"plain_buns":          "kitchen",
			"raw_cutlets":         "kitchen",
			"raw_samosa":          "kitchen",
			"raw_cheese_balls":    "kitchen",
			"osmania_loose":       "storage",
			"osmania_packets":     "storage",
			"niloufer_storage":    "storage",
		},
		FieldProducts: map[string][]int{
			"boiled_milk_counter": {IraniChai, Coffee},
			"boiled_milk_kitchen": {IraniChai, Coffee},
			"tea_decoction":       {IraniChai, LemonTea},
			"plain_buns":          {BunMaska, MalaiBun},
			"prepared_bun_maska":  {BunMaska},
			"raw_cutlets":         {Cutlet},
			"fried_cutlets":       {Cutlet},
			"raw_samosa":          {Samosa},
			"fried_samosa":        {Samosa},
			"raw_cheese_balls":    {CheeseBalls},
			"fried_cheese_balls":  {CheeseBalls},
			"osmania_loose":       {OsmaniaSingle, OsmaniaPack3},
			"osmania_packets":     {OsmaniaSingle, OsmaniaPack3},
			"niloufer_storage":    {NilouferBox},
			"niloufer_display":    {NilouferBox},
			"water_bottles":       {Water},
		},
		FallbackCosts: map[int]float64{
			BuffaloMilk: 80, SMP: 310, Sugar: 44, TeaPowder: 500, FilterWater: 1.5,
			Buns: 8, OsmaniaLoose: 6.65, CutletRaw: 15, BottledWater: 6.7,
			OsmaniaBox: 173, CondensedMilk: 326, SamosaRaw: 8, Oil: 120,
			CheeseBallRaw: 10, Butter: 500, CoffeePowder: 1200, Lemon: 5, Honey: 400,
		},
		Flagship: IraniChai,
	}
}
