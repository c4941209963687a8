package templates

// EmergencyAlertData holds variables for the emergency.alert scenario sent to
// the configured helpline contact when a user triggers the emergency action.
type EmergencyAlertData struct {
	Name        string
	Email       string
	PhoneNumber string
	Age         string
	City        string
	State       string
	Country     string
	TriggeredAt string
}

// EmergencyAlert is the typed handle for the emergency.alert template.
var EmergencyAlert = Expect[EmergencyAlertData]("emergency.alert")
