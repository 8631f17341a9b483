package repository

import "fmt"

// Key layout in the hosted store. The project webhook index and the
// token→project mapping are maintained in tandem: every token in the index
// must have a detail record and a mapping, and vice versa. Creates and
// deletes keep them in sync with separate writes, so a crash mid-sequence
// can leave a dangling entry; readers tolerate both directions.
func projectKey(projectID string) string {
	return fmt.Sprintf("project:%s", projectID)
}

func userProjectsKey(userID string) string {
	return fmt.Sprintf("user:%s:projects", userID)
}

func projectWebhooksKey(projectID string) string {
	return fmt.Sprintf("project:%s:webhooks", projectID)
}

func webhookTokenKey(token string) string {
	return fmt.Sprintf("webhook:token:%s", token)
}

func webhookDetailKey(projectID, token string) string {
	return fmt.Sprintf("webhook:%s:%s", projectID, token)
}

func webhookLastUsedKey(token string) string {
	return fmt.Sprintf("webhook:token:%s:lastUsed", token)
}

func webhookCallCountKey(token string) string {
	return fmt.Sprintf("webhook:token:%s:callCount", token)
}

func projectDataKey(projectID string) string {
	return fmt.Sprintf("project:%s:data", projectID)
}

func dataPointKey(dataID string) string {
	return fmt.Sprintf("data:%s", dataID)
}
