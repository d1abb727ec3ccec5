// Command triagectl inspects and resets the curator decisions stored by
// photo-triage.
//
// It supports the following operations:
//   - status: Show how many stored decisions exist under a folder
//   - reset: Forget the stored decisions under a folder
//   - last: Print the most recently loaded folder
//
// Usage:
//
//	triagectl <command> [folder]
//
// Commands:
//
//	status [folder]         Print keep, reject, pending and rated counts for
//	                        the folder and its subfolders.
//
//	reset [--yes] [folder]  Delete the stored decisions under the folder. The
//	                        next session over it starts from automated
//	                        verdicts. Asks for confirmation unless --yes is
//	                        given, and refuses when stdin is not a terminal.
//
//	last                    Print the folder loaded most recently.
//
// Without a folder argument, status and reset use the last loaded folder.
//
// Environment:
//
//	DATABASE_DIR - Path to database directory (default: ./data)
//
// Notes:
//
// Stop the server before resetting a folder it has loaded. The running
// session keeps its in-memory decisions and saves them again on the next
// change.
package main
