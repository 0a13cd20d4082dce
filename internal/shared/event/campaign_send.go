package event

const CampaignSendDestination string = "campaign_send"
const CampaignSendDestinationConsumerDelivery string = "campaign_send_delivery"

type CampaignRecipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CampaignSendMessage struct {
	CampaignID  int64               `json:"campaign_id"`
	SenderEmail string              `json:"sender_email"`
	SenderName  string              `json:"sender_name"`
	Subject     string              `json:"subject"`
	Text        string              `json:"text"`
	UseGreeting bool                `json:"use_greeting"`
	Recipients  []CampaignRecipient `json:"recipients"`
}
