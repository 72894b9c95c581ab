// Package supermod implements the Omnivoracious Listeners moderation bot.
//
// The bot posts scheduled community content (question of the day, the weekly
// newsletter, promo spots, submissions open/close announcements), runs the
// album submission approval workflow for the masterlist channels, and keeps
// the masterlist channels in sync with their backing Google Sheets
// worksheets.
package supermod
