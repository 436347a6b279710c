package validation

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

const emailPattern = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`

var nonEmpty = Property{Type: "string", MinLength: intPtr(1)}

// LoginSchema guards the sign-in form.
var LoginSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"email":    {Type: "string", MinLength: intPtr(1), Pattern: strPtr(emailPattern)},
		"password": nonEmpty,
	},
	Required: []string{"email", "password"},
}

// RegisterStudentSchema guards student sign-up.
var RegisterStudentSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"email":     {Type: "string", MinLength: intPtr(1), Pattern: strPtr(emailPattern)},
		"password":  {Type: "string", MinLength: intPtr(6)},
		"firstName": nonEmpty,
		"lastName":  nonEmpty,
		"major":     {Type: "string"},
		"year":      {Type: "integer"},
	},
	Required:             []string{"email", "password", "firstName", "lastName"},
	AdditionalProperties: true,
}

// RegisterBusinessSchema guards business sign-up.
var RegisterBusinessSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"email":       {Type: "string", MinLength: intPtr(1), Pattern: strPtr(emailPattern)},
		"password":    {Type: "string", MinLength: intPtr(6)},
		"firstName":   nonEmpty,
		"lastName":    nonEmpty,
		"companyName": nonEmpty,
		"industry":    {Type: "string"},
	},
	Required:             []string{"email", "password", "firstName", "lastName", "companyName"},
	AdditionalProperties: true,
}

// TalentSchema guards talent create and update.
var TalentSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"title":       {Type: "string", MinLength: intPtr(1), MaxLength: intPtr(120)},
		"category":    nonEmpty,
		"description": {Type: "string", MaxLength: intPtr(2000)},
	},
	Required: []string{"title", "category"},
}

// MessageSchema guards outgoing chat messages.
var MessageSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"conversationId": nonEmpty,
		"content":        {Type: "string", MinLength: intPtr(1), MaxLength: intPtr(4000)},
	},
	Required: []string{"conversationId", "content"},
}

// ConversationSchema guards conversation creation.
var ConversationSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"participantIds": {Type: "array", MinItems: intPtr(2), Items: &nonEmpty},
	},
	Required: []string{"participantIds"},
}

// ApplicationStatusSchema guards application decisions.
var ApplicationStatusSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"applicationId": nonEmpty,
		"status":        {Type: "string", Enum: []string{"PENDING", "ACCEPTED", "REJECTED"}},
	},
	Required: []string{"applicationId", "status"},
}
