// Package browser drives a Chromium page through Playwright for the
// exploration agent.
//
// A SessionManager owns the Playwright driver and the named sessions. A
// Toolset binds one session to the agent as browser_* tools: navigate,
// click, fill, wait, extract content, search, snapshot and evaluate. The
// session is started on the first tool call.
//
// Every navigation is held to a Scope of glob patterns, normally the origin
// of the project's base URL. Navigating outside it is refused; a click or
// script that leaves it is undone with a history back and reported to the
// model as an error.
//
// Snapshots are produced by Clean, which parses the page with
// golang.org/x/net/html, drops scripts, styles and presentational
// attributes, and lists the interactive elements with a selector for each:
//
//	set := browser.NewToolset(manager, "explore", browser.SessionOptions{Headless: true}, scope)
//	defer set.Close()
//	list, _ := set.Tools(ctx)
package browser
