package email

const (
	subjectOutreachFmt = "%s için dijital büyüme fikirleri"
	subjectReplyPrefix = "Re: "
)
