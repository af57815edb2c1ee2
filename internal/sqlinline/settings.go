package sqlinline

const QSelectSettingValue = `--sql 5b0d8f2a-7e61-4c93-b2a8-d4f7e1c9a053
select value
from studio_settings
where key = $1::text
limit 1;
`

const QUpsertSettingValue = `--sql 9f3a6c18-2d5b-4e07-a9c4-6b1e8d0f5a72
insert into studio_settings (key, value, updated_at)
values ($1::text, $2::jsonb, now())
on conflict (key) do update set
    value = excluded.value,
    updated_at = now();
`

const QDeleteSettingValue = `--sql 1c6e9a43-8b2d-4f50-9e17-a3d5c0b8f624
delete from studio_settings
where key = $1::text;
`
