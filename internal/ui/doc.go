// Package ui is the Bubble Tea front end of shelf.
//
// Model is a value type: every handler takes a copy, changes it and returns
// it together with the command to run next. Requests to the server never run
// inside Update; they run in tea.Cmd functions and report back with a message
// (booksMsg, authDoneMsg, bookSavedMsg and so on).
//
// # Screens
//
//   - Loading: shown while the session restores the stored credential
//   - Sign in / Register: credential forms
//   - Library: the paginated, searchable book list
//   - Book: the create/edit form, with file paths for cover and content
//   - Profile: details, password and photo, each submitted on its own
//   - Users: the administrator's account list with ban/unban
//   - Log: the client's own log file, filtered by level
//
// Screens other than the sign-in pair and the log require a signed-in user;
// Users additionally requires the admin role. enter applies both guards.
//
// # Session changes
//
// The model subscribes to the session manager and re-arms the subscription
// after every delivery. When a snapshot arrives that drops the user while a
// protected screen is showing, the model returns to Sign in and shows the
// session notice. The navigator installed by Run turns routes requested by
// other components, such as the gateway's 401 handler or a successful book
// save, into navigateMsg values.
//
// # Forms
//
// inputForm stacks text inputs into groups. Enter on the last field of a
// group submits that group; the form stays busy until the reply arrives, so
// a second enter cannot send a duplicate request.
package ui
