package format

import "github.com/gridsync/gridsync/types"

// Every row begins with the same three identity columns. Column A holds
// the ISO date key the reconciler matches on; the header row itself is
// written once at tab creation and never touched by data writes.
func identityCells(rec types.CanonicalRecord, meta types.ProfileMeta) types.Row {
	name := meta.Name
	if name == "" {
		name = rec.ProfileID
	}
	return types.Row{rec.ISODate, name, meta.Handle}
}

type instagramFormatter struct{}

var _ Formatter = instagramFormatter{}

func (instagramFormatter) Network() types.NetworkKind { return types.NetworkInstagram }

func (instagramFormatter) Headers() []string {
	return []string{
		"Date", "Profile", "Handle",
		"Impressions", "Reach", "Likes", "Comments", "Saves",
		"Story Views", "Profile Views", "Followers", "Net Follower Growth",
		"Posts By Type",
	}
}

func (f instagramFormatter) Format(rec types.CanonicalRecord, meta types.ProfileMeta) types.Row {
	if rec.ISODate == "" {
		return nil
	}
	row := identityCells(rec, meta)
	row = append(row,
		number(rec.Metrics, "impressions"),
		number(rec.Metrics, "reach"),
		number(rec.Metrics, "likes"),
		number(rec.Metrics, "comments_count"),
		number(rec.Metrics, "saves"),
		number(rec.Metrics, "story_views"),
		number(rec.Metrics, "profile_views"),
		number(rec.Metrics, "followers_count"),
		number(rec.Metrics, "net_follower_growth"),
		jsonCell(rec.Metrics, "posts_by_type"),
	)
	return row
}

type youtubeFormatter struct{}

var _ Formatter = youtubeFormatter{}

func (youtubeFormatter) Network() types.NetworkKind { return types.NetworkYouTube }

func (youtubeFormatter) Headers() []string {
	return []string{
		"Date", "Channel", "Handle",
		"Views", "Watch Time (min)", "Likes", "Dislikes", "Comments",
		"Shares", "Subscribers Gained", "Subscribers Lost", "Subscribers",
	}
}

func (f youtubeFormatter) Format(rec types.CanonicalRecord, meta types.ProfileMeta) types.Row {
	if rec.ISODate == "" {
		return nil
	}
	row := identityCells(rec, meta)
	row = append(row,
		number(rec.Metrics, "video_views"),
		number(rec.Metrics, "estimated_minutes_watched"),
		number(rec.Metrics, "likes"),
		number(rec.Metrics, "dislikes"),
		number(rec.Metrics, "comments_count"),
		number(rec.Metrics, "shares_count"),
		number(rec.Metrics, "subscribers_gained"),
		number(rec.Metrics, "subscribers_lost"),
		number(rec.Metrics, "followers_count"),
	)
	return row
}

type linkedinFormatter struct{}

var _ Formatter = linkedinFormatter{}

func (linkedinFormatter) Network() types.NetworkKind { return types.NetworkLinkedIn }

func (linkedinFormatter) Headers() []string {
	return []string{
		"Date", "Page", "Handle",
		"Impressions", "Unique Impressions", "Clicks", "Reactions",
		"Comments", "Shares", "Engagement Total", "Followers Gained", "Followers",
	}
}

func (f linkedinFormatter) Format(rec types.CanonicalRecord, meta types.ProfileMeta) types.Row {
	if rec.ISODate == "" {
		return nil
	}
	row := identityCells(rec, meta)
	row = append(row,
		number(rec.Metrics, "impressions"),
		number(rec.Metrics, "impressions_unique"),
		number(rec.Metrics, "post_link_clicks"),
		number(rec.Metrics, "reactions"),
		number(rec.Metrics, "comments_count"),
		number(rec.Metrics, "shares_count"),
		sum(rec.Metrics, "reactions", "comments_count", "shares_count", "post_link_clicks"),
		number(rec.Metrics, "net_follower_growth"),
		number(rec.Metrics, "followers_count"),
	)
	return row
}

type facebookFormatter struct{}

var _ Formatter = facebookFormatter{}

func (facebookFormatter) Network() types.NetworkKind { return types.NetworkFacebook }

func (facebookFormatter) Headers() []string {
	return []string{
		"Date", "Page", "Handle",
		"Impressions", "Reach", "Likes", "Comments", "Shares",
		"Engagement Total", "Link Clicks", "Page Follows", "Video Views",
	}
}

func (f facebookFormatter) Format(rec types.CanonicalRecord, meta types.ProfileMeta) types.Row {
	if rec.ISODate == "" {
		return nil
	}
	row := identityCells(rec, meta)
	row = append(row,
		number(rec.Metrics, "impressions"),
		number(rec.Metrics, "impressions_unique"),
		number(rec.Metrics, "likes"),
		number(rec.Metrics, "comments_count"),
		number(rec.Metrics, "shares_count"),
		sum(rec.Metrics, "likes", "comments_count", "shares_count"),
		number(rec.Metrics, "post_link_clicks"),
		number(rec.Metrics, "net_follower_growth"),
		number(rec.Metrics, "video_views"),
	)
	return row
}

type twitterFormatter struct{}

var _ Formatter = twitterFormatter{}

func (twitterFormatter) Network() types.NetworkKind { return types.NetworkTwitter }

func (twitterFormatter) Headers() []string {
	return []string{
		"Date", "Profile", "Handle",
		"Impressions", "Engagements", "Likes", "Retweets", "Replies",
		"URL Clicks", "Video Views", "Followers",
	}
}

func (f twitterFormatter) Format(rec types.CanonicalRecord, meta types.ProfileMeta) types.Row {
	if rec.ISODate == "" {
		return nil
	}
	row := identityCells(rec, meta)
	row = append(row,
		number(rec.Metrics, "impressions"),
		sum(rec.Metrics, "likes", "retweets", "replies", "post_link_clicks"),
		number(rec.Metrics, "likes"),
		number(rec.Metrics, "retweets"),
		number(rec.Metrics, "replies"),
		number(rec.Metrics, "post_link_clicks"),
		number(rec.Metrics, "video_views"),
		number(rec.Metrics, "followers_count"),
	)
	return row
}
