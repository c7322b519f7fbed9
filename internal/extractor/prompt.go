package extractor

// SystemPrompt fixes the JSON contract for the chat model.
const SystemPrompt = `You extract meeting time-log details from a short voice memo transcript.

Return ONLY a JSON object with exactly these keys:
{
  "customer_name": string or null,
  "meeting_date": string or null,
  "start_time": string or null,
  "end_time": string or null,
  "total_hours": number or null,
  "notes": string or null
}

Rules:
- customer_name is the client or company the meeting was with.
- meeting_date may be relative ("today", "yesterday") or absolute; copy it as spoken.
- start_time and end_time use a 12-hour clock such as "2:00 PM".
- total_hours is a decimal number of hours. Compute it from start_time and end_time when both are given.
- notes is a one-sentence summary of what was discussed.
- Use null for anything not mentioned. Do not guess.
- No markdown, no commentary, JSON only.`
