package instagram

// Button types accepted by the generic template.
const (
	ButtonTypeWebURL   = "web_url"
	ButtonTypePostback = "postback"
)

// TemplatePayload is the attachment payload of a generic template message.
type TemplatePayload struct {
	TemplateType string            `json:"template_type"`
	Elements     []TemplateElement `json:"elements"`
}

type TemplateElement struct {
	Title    string           `json:"title"`
	Subtitle string           `json:"subtitle,omitempty"`
	ImageURL string           `json:"image_url,omitempty"`
	Buttons  []TemplateButton `json:"buttons,omitempty"`
}

type TemplateButton struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// Validate rejects payloads the platform would refuse anyway, so that a
// local construction bug fails loudly instead of as an opaque upstream
// error. The typed shape also makes the historical "payload nested inside
// another payload wrapper" mistake unrepresentable.
func (p TemplatePayload) Validate() error {
	if p.TemplateType != "generic" {
		return &MalformedPayloadError{Reason: "template_type must be \"generic\", got \"" + p.TemplateType + "\""}
	}
	if len(p.Elements) == 0 {
		return &MalformedPayloadError{Reason: "elements must not be empty"}
	}
	if len(p.Elements) > 10 {
		return &MalformedPayloadError{Reason: "at most 10 elements allowed"}
	}

	for _, el := range p.Elements {
		if el.Title == "" {
			return &MalformedPayloadError{Reason: "element title must not be empty"}
		}
		if len(el.Buttons) > 3 {
			return &MalformedPayloadError{Reason: "at most 3 buttons per element"}
		}
		for _, b := range el.Buttons {
			if b.Title == "" {
				return &MalformedPayloadError{Reason: "button title must not be empty"}
			}
			switch b.Type {
			case ButtonTypeWebURL:
				if b.URL == "" {
					return &MalformedPayloadError{Reason: "web_url button requires a url"}
				}
				if b.Payload != "" {
					return &MalformedPayloadError{Reason: "web_url button must not carry a payload"}
				}
			case ButtonTypePostback:
				if b.Payload == "" {
					return &MalformedPayloadError{Reason: "postback button requires a payload"}
				}
				if b.URL != "" {
					return &MalformedPayloadError{Reason: "postback button must not carry a url"}
				}
			default:
				return &MalformedPayloadError{Reason: "unsupported button type \"" + b.Type + "\""}
			}
		}
	}
	return nil
}
