package firmware

import "regexp"

// sessionHeader matches a session tag at the very start of a topic.
var sessionHeader = regexp.MustCompile(`^---\r?\nSESSION:[^\r\n]*\r?\n---\r?\n?`)

// Tag prefixes topic with a session header so jobs can later be filtered by
// the session that started them. topic is not escaped.
func Tag(sessionID, topic string) string {
	return "---\nSESSION:" + sessionID + "\n---\n" + topic
}

// Strip removes a leading session header, if any.
func Strip(topic string) string {
	loc := sessionHeader.FindStringIndex(topic)
	if loc == nil {
		return topic
	}
	return topic[loc[1]:]
}
