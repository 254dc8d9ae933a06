package main

// Options is the root command. The struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	Version bool     `short:"v" long:"version" description:"print the client version and exit"`
	Chat    *ChatCmd `command:"chat" description:"Chat with the tutor (one message, or interactive when none is given)"`
}

// Init instantiates the sub-command named by firstArg so that parsing can
// populate its fields.
func (o *Options) Init(firstArg string) {
	switch firstArg {
	case "chat":
		o.Chat = newChatCmd()
	}
}
