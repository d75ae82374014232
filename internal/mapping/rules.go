package mapping

// DetectionRule describes how to recognise the columns holding one target field.
type DetectionRule struct {
	Field FieldID
	Label string
	// Patterns match semantic header names, Hebrew or Latin.
	Patterns []string
	// Fallback patterns match generic column names of headerless or anonymised
	// exports and assume the conventional first name, last name, email, phone order.
	Fallback []string
	Required bool
}

// DefaultRules returns the detection catalogue. Order matters: the first rule
// with a matching pattern claims the column.
func DefaultRules() []DetectionRule {
	return []DetectionRule{
		{
			Field: FieldFirstName,
			Label: "First name",
			Patterns: []string{
				`^(first|given)[\s_\-]*name$`,
				`^(fname|firstname|first)$`,
				`שם\s*פרטי`,
				`^פרטי$`,
			},
			Fallback: []string{`^column[\s_\-]*1$`, `^a$`, `^1$`},
			Required: true,
		},
		{
			Field: FieldLastName,
			Label: "Last name",
			Patterns: []string{
				`^(last|family|sur)[\s_\-]*name$`,
				`^(lname|lastname|surname|last)$`,
				`שם\s*(ה)?משפחה`,
				`^משפחה$`,
			},
			Fallback: []string{`^column[\s_\-]*2$`, `^b$`, `^2$`},
			Required: true,
		},
		{
			Field: FieldFullName,
			Label: "Full name",
			Patterns: []string{
				`^(full[\s_\-]*)?name$`,
				`^(employee|worker|staff)[\s_\-]*name$`,
				`^שם(\s*מלא)?$`,
				`^שם\s*(ה)?עובד(ת)?$`,
			},
		},
		{
			Field: FieldEmail,
			Label: "Email",
			Patterns: []string{
				`e[\s_\-]*mail`,
				`^mail$`,
				`אי[\s\-]*מייל`,
				`^מייל$`,
				`דוא["׳'״]?ל`,
				`דואר\s*אלקטרוני`,
			},
			Fallback: []string{`^column[\s_\-]*3$`, `^c$`, `^3$`},
		},
		{
			Field: FieldPhone,
			Label: "Phone",
			Patterns: []string{
				`phone`,
				`mobile`,
				`^(tel|cell)`,
				`טלפון`,
				`נייד`,
				`פלאפון`,
				`סלולרי`,
				`^טל[\.׳']?$`,
			},
			Fallback: []string{`^column[\s_\-]*4$`, `^d$`, `^4$`},
		},
		{
			Field: FieldNationalID,
			Label: "National ID",
			Patterns: []string{
				`national[\s_\-]*id`,
				`^id[\s_\-]*(number|no\.?|#)?$`,
				`passport`,
				`social[\s_\-]*security|^ssn$`,
				`תעודת\s*זהות`,
				`^ת[\.\s]*ז[\.]?$`,
				`מספר\s*זהות`,
				`^זהות$`,
			},
		},
		{
			Field: FieldEmployeeCode,
			Label: "Employee code",
			Patterns: []string{
				`^(employee|emp|worker|staff)[\s_\-]*(code|number|no\.?|#|id)$`,
				`^(badge|payroll)[\s_\-]*(code|number|no\.?|id)?$`,
				`מספר\s*(עובד|אישי)`,
				`קוד\s*עובד`,
				`מס['׳]?\s*עובד`,
			},
		},
		{
			Field: FieldAddress,
			Label: "Address",
			Patterns: []string{
				`address`,
				`street`,
				`^city$`,
				`כתובת`,
				`רחוב`,
				`^עיר$`,
				`מגורים`,
			},
		},
		{
			Field: FieldHireDate,
			Label: "Hire date",
			Patterns: []string{
				`(hire|start|employment|join(ing)?)[\s_\-]*date`,
				`date[\s_\-]*of[\s_\-]*(hire|employment|joining)`,
				`^hired$`,
				`תאריך\s*(תחילת\s*(עבודה|העסקה)|התחלה|קליטה)`,
				`תחילת\s*(עבודה|העסקה)`,
			},
		},
		{
			Field: FieldEmployeeType,
			Label: "Employee type",
			Patterns: []string{
				`(employee|employment|worker|contract)[\s_\-]*type`,
				`^type$`,
				`סוג\s*(ה)?(עובד|העסקה|משרה)`,
				`^סוג$`,
			},
		},
		{
			Field: FieldWeeklyHours,
			Label: "Weekly hours",
			Patterns: []string{
				`(weekly|week)[\s_\-]*hours`,
				`hours[\s_\-]*(per|a|/)[\s_\-]*week`,
				`^hours$`,
				`שעות\s*(שבועיות|בשבוע|לשבוע)`,
				`היקף\s*משרה`,
				`^שעות$`,
			},
		},
		{
			Field: FieldBranchName,
			Label: "Branch",
			Patterns: []string{
				`branch`,
				`^(location|store|site)$`,
				`סניף`,
				`^מיקום$`,
				`^חנות$`,
			},
		},
		{
			Field: FieldNotes,
			Label: "Notes",
			Patterns: []string{
				`^notes?$`,
				`comment`,
				`remark`,
				`הער(ה|ות)`,
			},
		},
	}
}
